package control

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client talks to a running director's control socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 10 * time.Second}
}

// SendCommand sends one command and waits for the reply.
func (c *Client) SendCommand(cmd Command) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to director (is it running?): %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}
	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &resp, nil
}

// Status fetches the director's status surface.
func (c *Client) Status() (*Response, error) {
	return c.SendCommand(Command{Type: "status", Timestamp: time.Now()})
}

// Inject submits one event as if a sensor produced it.
func (c *Client) Inject(source, text, username string) (*Response, error) {
	return c.SendCommand(Command{
		Type:      "inject",
		Source:    source,
		Text:      text,
		Username:  username,
		Timestamp: time.Now(),
	})
}
