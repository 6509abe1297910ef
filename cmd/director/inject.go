package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/peepingotter/director/internal/control"
)

var (
	injectSource string
	injectUser   string
)

var injectCmd = &cobra.Command{
	Use:   "inject [text...]",
	Short: "Inject one event into the running director",
	Long: `Submit an event through the control socket as if a sensor produced it.
Sources: direct_mic, mic, ambient_audio, visual_change, chat, chat_mention.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args, " ")
		resp, err := control.NewClient(socketPath).Inject(injectSource, text, injectUser)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !resp.Success {
			fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Error)
			os.Exit(1)
		}
		fmt.Printf("injected %v\n", resp.Data["id"])
	},
}

func init() {
	injectCmd.Flags().StringVar(&injectSource, "source", "chat", "event source")
	injectCmd.Flags().StringVar(&injectUser, "user", "", "username attached to the event")
	rootCmd.AddCommand(injectCmd)
}
