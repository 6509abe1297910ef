package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/peepingotter/director/internal/control"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running director's state",
	Long:  `Query the control socket for the summary, mood, focus, energy, and breadcrumbs.`,
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := control.NewClient(socketPath).Status()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !resp.Success {
			fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Error)
			os.Exit(1)
		}
		renderStatus(resp.Data)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func renderStatus(data map[string]any) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan("=== Director Status ==="))

	state := subMap(data, "state")
	fmt.Printf("%s\n", yellow("Stream:"))
	fmt.Printf("  Summary:    %s\n", str(state, "summary"))
	fmt.Printf("  Prediction: %s\n", str(state, "prediction"))
	fmt.Printf("  Scene:      %s   Mood: %s   Momentum: %s\n",
		str(state, "scene"), str(state, "mood"), str(state, "momentum"))
	fmt.Printf("  Flow:       %s   Conversation: %s   Intent: %s\n",
		str(state, "flow"), str(state, "conversation_state"), str(state, "intent"))
	if topic := str(state, "focus_topic"); topic != "" {
		fmt.Printf("  Focus:      %s\n", topic)
	}
	fmt.Println()

	fmt.Printf("%s\n", yellow("Agent:"))
	fmt.Printf("  Goal:     %s\n", str(data, "goal"))
	en := subMap(data, "energy")
	fmt.Printf("  Energy:   %s\n", green(fmt.Sprintf("%.0f / %.0f (%.0f%%)",
		num(en, "current"), num(en, "max"), num(en, "percent"))))
	ad := subMap(data, "adaptive")
	fmt.Printf("  Regime:   %s (threshold %.2f)\n", str(ad, "regime"), num(ad, "threshold"))
	fmt.Printf("  Tilt:     %.2f\n", num(data, "tilt"))
	fmt.Printf("  Memories: %.0f (%.0f archived)   Open debts: %.0f\n",
		num(data, "memories"), num(data, "archived"), num(data, "debts"))
	th := subMap(data, "threads")
	fmt.Printf("  Threads:  %.0f total, %.0f pending", num(th, "total"), num(th, "pending"))
	if topic := str(th, "active_topic"); topic != "" {
		fmt.Printf(", active: %s", topic)
	}
	fmt.Println()
	fmt.Println()

	fmt.Printf("%s\n", yellow("Breadcrumbs:"))
	crumbs, _ := data["breadcrumbs"].([]any)
	if len(crumbs) == 0 {
		fmt.Printf("  %s\n", gray("nothing live"))
	}
	for _, c := range crumbs {
		crumb, ok := c.(map[string]any)
		if !ok {
			continue
		}
		fmt.Printf("  %s [%s] %s\n",
			gray(fmt.Sprintf("%.2f", num(crumb, "score"))),
			str(crumb, "source"), str(crumb, "text"))
	}
	fmt.Println()
}

// The control channel is JSON, so everything arrives as map[string]any.
func subMap(data map[string]any, key string) map[string]any {
	if m, ok := data[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func str(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func num(data map[string]any, key string) float64 {
	if f, ok := data[key].(float64); ok {
		return f
	}
	return 0
}
