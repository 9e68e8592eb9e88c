package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/leisambientais/leischat/internal/ui"
)

// Alerts sent for events that cannot be applied.
const (
	MsgInvalidEvent = "Mensagem inválida."
	MsgUnknownEvent = "Ação desconhecida."
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket runs one page mount for the lifetime of the connection.
// Reads happen on the handler goroutine; a single writer goroutine drains
// the page outbox.
func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("page")
	page, err := d.newPage(name, r.URL.Query().Get("user"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	id := d.track(name)
	defer d.untrack(id)

	ctx, cancel := context.WithCancel(r.Context())
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeEffects(ctx, conn, page.Outbox())
	}()
	defer func() {
		cancel()
		page.Wait()
		<-writerDone
	}()

	if err := page.Mount(ctx); err != nil {
		log.Printf("dashboard: mounting %s: %v", name, err)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("dashboard: websocket read: %v", err)
			}
			return
		}

		var ev ui.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			page.Outbox().Alert(MsgInvalidEvent)
			continue
		}

		if err := page.Dispatch(ctx, ev); err != nil {
			if errors.Is(err, ui.ErrUnknownRoute) {
				page.Outbox().Alert(MsgUnknownEvent)
			}
			log.Printf("dashboard: %s %s: %v", name, ev.Route(), err)
		}
	}
}

// writeEffects sends queued effects until ctx is cancelled or a write
// fails.
func writeEffects(ctx context.Context, conn *websocket.Conn, out *ui.Outbox) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-out.Notify():
			for _, e := range out.Drain() {
				if err := conn.WriteJSON(e); err != nil {
					log.Printf("dashboard: websocket write: %v", err)
					return
				}
			}
		}
	}
}
