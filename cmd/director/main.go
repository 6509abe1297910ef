// Command director runs the stream-watching decision core and the operator
// tooling that talks to it over the control socket.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	configPath string
	socketPath string
)

var rootCmd = &cobra.Command{
	Use:   "director",
	Short: "Autonomous stream director",
	Long: `director watches a live multi-modal event stream (vision, audio, chat),
maintains tiered working memory, arbitrates attention, and decides what an
agent should say and when.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", defaultSocket(), "control socket path")
}

func defaultSocket() string {
	if v := os.Getenv("DIRECTOR_SOCKET"); v != "" {
		return v
	}
	return filepath.Join(os.TempDir(), "director.sock")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
