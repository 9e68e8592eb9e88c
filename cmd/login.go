package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/login"
	"github.com/leisambientais/leischat/internal/termui"
)

var loginSave bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend",
	Long:  `Prompts for e-mail and password and signs in. With --save the returned user id is written to the config file so chat commands reopen your conversations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		quietLogs()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		emailPrompt := promptui.Prompt{
			Label: "E-mail",
			Validate: func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("enter a valid e-mail")
				}
				return nil
			},
		}
		email, err := emailPrompt.Run()
		if err != nil {
			return fmt.Errorf("e-mail: %w", err)
		}
		passwordPrompt := promptui.Prompt{Label: "Senha", Mask: '*'}
		password, err := passwordPrompt.Run()
		if err != nil {
			return fmt.Errorf("password: %w", err)
		}

		r := termui.New(0)
		form := login.New(newBackendClient(cfg), "")
		form.Submit(context.Background(), backend.Credentials{Email: strings.TrimSpace(email), Password: password})
		if form.UserID() == "" {
			fmt.Println(r.Error(form.Message()))
			return errors.New("login failed")
		}

		fmt.Println(r.Success("Login realizado como " + form.UserID()))
		if !loginSave {
			return nil
		}
		cfg.UserID = form.UserID()
		if err := cfg.Save(cfgFile); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println(r.Muted("user_id saved to " + cfgFile))
		return nil
	},
}

func init() {
	loginCmd.Flags().BoolVar(&loginSave, "save", false, "save the user id to the config file")
	rootCmd.AddCommand(loginCmd)
}
