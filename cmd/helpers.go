package cmd

import (
	"fmt"
	"net/http"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/config"
	"github.com/leisambientais/leischat/internal/conversation"
	"github.com/leisambientais/leischat/internal/prefs"
	"github.com/leisambientais/leischat/internal/session"
	"github.com/leisambientais/leischat/internal/view"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `leischat init` to create a config file", err)
	}
	return cfg, nil
}

// newBackendClient creates the API client for the configured backend and
// chat variant.
func newBackendClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.BackendURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		backend.WithChatPath(cfg.ChatSettings().Path),
	)
}

// chatOptions builds the chat page options from the config.
func chatOptions(cfg *config.Config, userID string, store *prefs.Store) session.ChatOptions {
	chat := cfg.ChatSettings()
	return session.ChatOptions{
		UserID:   userID,
		Lazy:     chat.Lazy && userID != "",
		Greeting: chat.Greeting,
		Fallback: chat.Fallback,
		Markdown: chat.Markdown,
		Avatars: view.Avatars{
			conversation.RoleAssistant: chat.AssistantAvatar,
			conversation.RoleUser:      chat.UserAvatar,
		},
		MaxUploadSize:  cfg.MaxUploadBytes(),
		UploadPatterns: cfg.Upload.Patterns,
		Prefs:          store,
	}
}
