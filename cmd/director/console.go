package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peepingotter/director/internal/console"
)

var consoleUser string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive shell against a running director",
	Long: `Open a readline shell on the control socket. Plain lines inject as chat
messages; slash commands feed the other sensors or query state. Type /help
inside the console for the full list.`,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := console.New(console.Config{
			SocketPath: socketPath,
			Username:   consoleUser,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := c.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	consoleCmd.Flags().StringVar(&consoleUser, "user", "operator", "username for injected chat lines")
	rootCmd.AddCommand(consoleCmd)
}
