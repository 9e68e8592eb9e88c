package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// validateURL is the promptui validator of the backend URL.
func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("enter an http(s) URL")
	}
	return nil
}

// validatePort is the promptui validator of the server port.
func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		return errors.New("enter a port between 1 and 65535")
	}
	return nil
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to leischat! Let's configure the client.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Backend.
	urlPrompt := promptui.Prompt{
		Label:    "Backend URL",
		Default:  cfg.BackendURL,
		Validate: validateURL,
	}
	backendURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(backendURL), "/")

	// 2. Variant.
	variantPrompt := promptui.Select{
		Label: "Select chat variant",
		Items: []string{
			"default — /ask-ia",
			"o3      — /ask-ia-o3",
			"o3-mini — /ask-ia-o3-mini",
		},
	}
	variantIdx, _, err := variantPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("variant selection: %w", err)
	}
	cfg.Variant = []Variant{VariantDefault, VariantO3, VariantO3Mini}[variantIdx]

	// 3. User.
	userPrompt := promptui.Prompt{
		Label:   "User id (leave blank to start a new chat on every visit)",
		Default: "",
	}
	userID, err := userPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	cfg.UserID = strings.TrimSpace(userID)
	cfg.Chat.Lazy = cfg.UserID != ""

	// 4. Markdown.
	mdPrompt := promptui.Select{
		Label: "Render assistant replies as Markdown?",
		Items: []string{"no", "yes"},
	}
	mdIdx, _, err := mdPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("markdown selection: %w", err)
	}
	cfg.Chat.Markdown = mdIdx == 1

	// 5. Port.
	portPrompt := promptui.Prompt{
		Label:    "UI server port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(strings.TrimSpace(portStr))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
