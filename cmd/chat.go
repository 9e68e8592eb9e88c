package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/leisambientais/leischat/internal/db"
	"github.com/leisambientais/leischat/internal/prefs"
	"github.com/leisambientais/leischat/internal/session"
	"github.com/leisambientais/leischat/internal/sidebar"
	"github.com/leisambientais/leischat/internal/termui"
	"github.com/leisambientais/leischat/internal/ui"
	"github.com/leisambientais/leischat/internal/upload"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Chat with the legislation assistant in the terminal",
	Long: `Opens an interactive chat. Type a question to send it, or one of:

  /new              start a new conversation
  /list             list conversations
  /open N           open conversation N
  /rename N TITLE   rename conversation N
  /delete N         delete conversation N
  /upload FILE      upload a PDF document
  /quit             leave

With a question as argument, sends it once, prints the reply and exits.`,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	// Assigned here rather than in the literal: runChat reaches chatCmd.Long,
	// which would otherwise form an initialization cycle.
	chatCmd.RunE = runChat
	chatCmd.Flags().StringVar(&chatUser, "user", "", "user id (defaults to user_id from the config)")
	rootCmd.AddCommand(chatCmd)
}

// chatREPL drives a chat page from the terminal.
type chatREPL struct {
	page  *session.ChatPage
	r     *termui.Renderer
	out   io.Writer
	key   string // conversation shown last
	shown int    // messages of key already printed
}

func runChat(cmd *cobra.Command, args []string) error {
	quietLogs()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	userID := cfg.UserID
	if chatUser != "" {
		userID = chatUser
	}

	var store *prefs.Store
	if database, err := db.Open(cfg.DBPath); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: preferences unavailable: %v\n", err)
	} else {
		defer database.Close()
		store = prefs.NewStore(database)
	}

	page := session.NewChat(newBackendClient(cfg), chatOptions(cfg, userID, store))
	repl := &chatREPL{page: page, r: termui.New(100), out: cmd.OutOrStdout()}
	if err := page.Mount(ctx); err != nil {
		return err
	}
	page.Wait()

	if len(args) == 1 {
		repl.show(true)
		return repl.send(ctx, args[0])
	}

	fmt.Fprintln(repl.out, repl.r.Header(cfg.ChatSettings().Title))
	if userID != "" {
		repl.list()
	}
	repl.show(true)

	for {
		prompt := promptui.Prompt{Label: ">"}
		line, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := repl.send(ctx, line); err != nil {
				return err
			}
			continue
		}
		quit, err := repl.command(ctx, line)
		if err != nil {
			fmt.Fprintln(repl.out, repl.r.Error(err.Error()))
		}
		if quit {
			return nil
		}
	}
}

// dispatch applies ev, waits for the background work it started and prints
// the alerts it raised.
func (c *chatREPL) dispatch(ctx context.Context, ev ui.Event) error {
	err := c.page.Dispatch(ctx, ev)
	c.page.Wait()
	for _, e := range c.page.Outbox().Drain() {
		if e.Type == ui.EffectAlert {
			fmt.Fprintln(c.out, c.r.Error(e.Message))
		}
	}
	return err
}

func (c *chatREPL) send(ctx context.Context, text string) error {
	if err := c.dispatch(ctx, ui.Event{Component: "composer", Name: "submit", Value: text}); err != nil {
		return err
	}
	c.show(false)
	return nil
}

// show prints the messages of the current conversation not printed yet, or
// all of them when the conversation changed or all is set.
func (c *chatREPL) show(all bool) {
	c.page.Read(func() {
		key, _ := c.page.Store.Current()
		if key != c.key {
			all = true
		}
		msgs := c.page.Doc.Messages.Children
		start := c.shown
		if all || start > len(msgs) {
			start = 0
		}
		for _, m := range msgs[start:] {
			fmt.Fprintln(c.out, c.r.Message(m))
			fmt.Fprintln(c.out)
		}
		c.key, c.shown = key, len(msgs)
	})
}

// keyAt returns the conversation key of the Nth (1-based) list entry.
func (c *chatREPL) keyAt(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return "", fmt.Errorf("invalid conversation number %q", arg)
	}
	var key string
	c.page.Read(func() {
		items := c.page.Doc.List.Children
		if n >= 1 && n <= len(items) {
			key = items[n-1].Attr("data-key")
		}
	})
	if key == "" {
		return "", fmt.Errorf("no conversation %d, see /list", n)
	}
	return key, nil
}

func (c *chatREPL) list() {
	c.page.Read(func() {
		fmt.Fprintln(c.out, c.r.ConversationList(c.page.Doc.List))
	})
}

func (c *chatREPL) command(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(c.out, c.r.Muted(chatCmd.Long))
	case "/new":
		if err := c.dispatch(ctx, ui.Event{Component: "newchat", Name: "click"}); err != nil {
			return false, err
		}
		c.show(true)
	case "/list":
		c.list()
	case "/open":
		if len(fields) != 2 {
			return false, errors.New("usage: /open N")
		}
		key, err := c.keyAt(fields[1])
		if err != nil {
			return false, err
		}
		if err := c.dispatch(ctx, ui.Event{Component: "sidebar", Name: "select", Target: key}); err != nil {
			return false, err
		}
		c.show(true)
	case "/rename":
		if len(fields) < 3 {
			return false, errors.New("usage: /rename N TITLE")
		}
		key, err := c.keyAt(fields[1])
		if err != nil {
			return false, err
		}
		title := strings.Join(fields[2:], " ")
		if err := c.dispatch(ctx, ui.Event{Component: "sidebar", Name: "rename", Target: key, Value: title}); err != nil {
			return false, err
		}
		c.list()
	case "/delete":
		if len(fields) != 2 {
			return false, errors.New("usage: /delete N")
		}
		key, err := c.keyAt(fields[1])
		if err != nil {
			return false, err
		}
		confirm := promptui.Prompt{Label: sidebar.ConfirmDelete, IsConfirm: true}
		if _, err := confirm.Run(); err != nil {
			return false, nil
		}
		if err := c.dispatch(ctx, ui.Event{Component: "sidebar", Name: "delete", Target: key}); err != nil {
			return false, err
		}
		c.list()
		c.show(false)
	case "/upload":
		if len(fields) < 2 {
			return false, errors.New("usage: /upload FILE")
		}
		return false, c.upload(ctx, strings.TrimSpace(strings.TrimPrefix(line, fields[0])))
	default:
		return false, fmt.Errorf("unknown command %s, see /help", fields[0])
	}
	return false, nil
}

func (c *chatREPL) upload(ctx context.Context, path string) error {
	var err error
	var modal string
	c.page.Do(func() {
		err = uploadFile(ctx, c.page.Upload, path)
		if errors.Is(err, upload.ErrRejected) {
			_, msg := c.page.Upload.Error()
			modal = c.r.Error(msg)
		} else if err == nil || c.page.Upload.State() == upload.Failed {
			modal = c.r.Modal(c.page.Upload.View())
		}
	})
	if modal != "" {
		fmt.Fprintln(c.out, modal)
	}
	next := ui.Event{Component: "upload", Name: "close"}
	if err == nil {
		next.Name = "continue"
	}
	if derr := c.dispatch(ctx, next); derr != nil && err == nil {
		return derr
	}
	if modal != "" {
		return nil
	}
	return err
}
