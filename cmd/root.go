package cmd

import (
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/leisambientais/leischat/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "leischat",
	Short: "Chat client for the Leis Ambientais legislation assistant",
	Long: `leischat serves the Leis Ambientais chat, login and table generator
pages, and talks to the same backend from the terminal: ask questions about
environmental legislation, manage conversations, upload documents and
generate legislation tables.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// quietLogs silences package logging in interactive commands unless
// --verbose is set.
func quietLogs() {
	if !verbose {
		log.SetOutput(io.Discard)
	}
}
