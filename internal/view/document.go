package view

import "github.com/leisambientais/leischat/internal/conversation"

// Element ids of the chat page.
const (
	IDApp       = "app"
	IDChatList  = "chat-list"
	IDMessages  = "chat-messages"
	IDInput     = "message-input"
	IDModalRoot = "modal-root"
	IDAlert     = "alert"
)

// ChatDocument is the element tree of the chat page with handles on the
// parts controllers mutate.
type ChatDocument struct {
	Root      *Node
	List      *Node // ul of conversations
	Messages  *Node // message area
	Input     *Node // composer textarea
	ModalRoot *Node
}

// NewChatDocument builds the empty chat page.
func NewChatDocument() *ChatDocument {
	d := &ChatDocument{
		List:      El("ul").WithID(IDChatList),
		Messages:  El("div").WithID(IDMessages),
		Input:     El("textarea").WithID(IDInput).Set("rows", "1").Set("placeholder", "Digite sua mensagem..."),
		ModalRoot: El("div").WithID(IDModalRoot),
	}
	d.Input.On("keydown", "composer:keydown", "")

	sidebar := El("aside", "sidebar").Append(
		El("button", "new-chat-btn").WithText("+ Novo chat").On("click", "newchat:click", ""),
		d.List,
	)
	form := El("form").WithID("message-form").On("submit", "composer:submit", "").Append(
		El("button", "documentos-button").WithID("documentos-button").Set("type", "button").
			WithText("📄 Documentos").On("click", "upload:open", ""),
		d.Input,
		El("button", "send-btn").Set("type", "submit").WithText("Enviar"),
	)
	d.Root = El("div", "chat-app").WithID(IDApp).Append(
		sidebar,
		El("main", "chat-main").Append(d.Messages, form),
		d.ModalRoot,
	)
	return d
}

// InputValue returns the composer contents.
func (d *ChatDocument) InputValue() string {
	return d.Input.Text
}

// SetInputValue replaces the composer contents.
func (d *ChatDocument) SetInputValue(v string) {
	d.Input.Text = v
}

// MessageView keeps the message area in step with a conversation.
type MessageView struct {
	area     *Node
	renderer *MessageRenderer
}

// NewMessageView binds a renderer to a message area.
func NewMessageView(area *Node, renderer *MessageRenderer) *MessageView {
	return &MessageView{area: area, renderer: renderer}
}

// Clear empties the message area.
func (v *MessageView) Clear() {
	v.area.Clear()
}

// Show re-renders the area from msgs, in order.
func (v *MessageView) Show(msgs []conversation.Message) {
	v.area.Clear()
	for _, m := range msgs {
		v.area.Append(v.renderer.Render(m.Role, m.Content))
	}
	v.area.Set("data-scroll", "bottom")
}

// Add appends one message at the end.
func (v *MessageView) Add(role conversation.Role, content string) {
	v.area.Append(v.renderer.Render(role, content))
	v.area.Set("data-scroll", "bottom")
}

// Count returns the number of rendered messages.
func (v *MessageView) Count() int {
	return len(v.area.Children)
}
