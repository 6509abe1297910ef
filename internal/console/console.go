// Package console is the interactive operator shell: a readline loop that
// injects events into a running director through the control socket and
// renders its status.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/peepingotter/director/internal/control"
)

// Console represents the interactive shell.
type Console struct {
	client   *control.Client
	rl       *readline.Instance
	username string
	commands map[string]CommandHandler
}

// CommandHandler handles a specific slash command.
type CommandHandler func(args []string) error

// Config holds console configuration.
type Config struct {
	SocketPath string
	// Username attached to injected chat lines; defaults to "operator".
	Username string
}

// New creates a console instance.
func New(cfg Config) (*Console, error) {
	if cfg.SocketPath == "" {
		return nil, fmt.Errorf("socket path is required")
	}
	username := cfg.Username
	if username == "" {
		username = "operator"
	}

	c := &Console{
		client:   control.NewClient(cfg.SocketPath),
		username: username,
		commands: make(map[string]CommandHandler),
	}
	c.registerCommands()
	return c, nil
}

// Run starts the console loop. Plain lines inject as chat; slash commands
// select other sources or query the director.
func (c *Console) Run() error {
	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("director> "),
		HistoryFile:       "",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	c.rl = rl

	c.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := c.processInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s %v\n", red("Error:"), err)
		}
	}
}

func (c *Console) processInput(line string) error {
	if !strings.HasPrefix(line, "/") {
		return c.inject("chat", line)
	}

	parts := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(parts) == 0 {
		return nil
	}
	if handler, ok := c.commands[parts[0]]; ok {
		return handler(parts[1:])
	}
	return fmt.Errorf("unknown command /%s (try /help)", parts[0])
}

func (c *Console) registerCommands() {
	c.commands["help"] = c.cmdHelp
	c.commands["?"] = c.cmdHelp
	c.commands["status"] = c.cmdStatus
	c.commands["mic"] = c.sourceCmd("direct_mic")
	c.commands["talk"] = c.sourceCmd("mic")
	c.commands["visual"] = c.sourceCmd("visual_change")
	c.commands["audio"] = c.sourceCmd("ambient_audio")
	c.commands["user"] = c.cmdUser
	c.commands["quit"] = c.cmdQuit
	c.commands["exit"] = c.cmdQuit
}

func (c *Console) printWelcome() {
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Println("Connected to the director. Plain lines inject as chat.")
	fmt.Printf("%s\n", gray("/mic <text> speaks to the agent, /visual and /audio feed the other sensors, /status shows state, /help lists everything."))
}

func (c *Console) cmdHelp([]string) error {
	fmt.Println("Commands:")
	fmt.Println("  <text>            inject a chat message")
	fmt.Println("  /mic <text>       operator speaking to the agent (direct_mic)")
	fmt.Println("  /talk <text>      operator speech not aimed at the agent (mic)")
	fmt.Println("  /visual <text>    visual change description")
	fmt.Println("  /audio <text>     ambient audio transcription")
	fmt.Println("  /user <name>      set the username attached to chat lines")
	fmt.Println("  /status           show director state")
	fmt.Println("  /quit             exit")
	return nil
}

func (c *Console) cmdStatus([]string) error {
	resp, err := c.client.Status()
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	state, _ := resp.Data["state"].(map[string]any)
	fmt.Printf("%s %v\n", yellow("summary:"), state["summary"])
	fmt.Printf("%s %v  %s %v  %s %v\n",
		yellow("mood:"), state["mood"],
		yellow("scene:"), state["scene"],
		yellow("goal:"), resp.Data["goal"])
	if en, ok := resp.Data["energy"].(map[string]any); ok {
		fmt.Printf("%s %.0f%%\n", yellow("energy:"), en["percent"])
	}
	return nil
}

func (c *Console) cmdUser(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /user <name>")
	}
	c.username = args[0]
	fmt.Printf("chatting as %s\n", c.username)
	return nil
}

func (c *Console) cmdQuit([]string) error {
	fmt.Println("Goodbye!")
	return io.EOF
}

func (c *Console) sourceCmd(source string) CommandHandler {
	return func(args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("usage: /%s <text>", source)
		}
		return c.inject(source, strings.Join(args, " "))
	}
}

func (c *Console) inject(source, text string) error {
	username := ""
	if source == "chat" {
		username = c.username
	}
	resp, err := c.client.Inject(source, text, username)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}
