package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leisambientais/leischat/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize leischat configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the backend, chat variant and UI server, and writes a .leischat.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.RunWizard(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Configuration saved to %s\n", cfgFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
