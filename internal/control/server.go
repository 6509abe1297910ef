// Package control exposes the director's read-only status surface and a
// small command channel over a unix domain socket.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Command is one request sent to a running director.
type Command struct {
	Type      string         `json:"type"` // "status", "inject", "say"
	Source    string         `json:"source,omitempty"`
	Text      string         `json:"text,omitempty"`
	Username  string         `json:"username,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Response is the director's reply.
type Response struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Server listens on the control socket.
type Server struct {
	socketPath string
	listener   net.Listener
	mu         sync.RWMutex
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}

	onCommand func(cmd Command) (map[string]any, error)
}

// NewServer creates a control server on socketPath. An existing socket file
// (from a crashed previous run) is removed.
func NewServer(socketPath string, onCommand func(Command) (map[string]any, error)) (*Server, error) {
	dir := filepath.Dir(socketPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}
	return &Server{
		socketPath: socketPath,
		onCommand:  onCommand,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Start begins accepting connections in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("control server already running")
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create control socket: %w", err)
	}
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	fmt.Printf("[control] listening on %s\n", s.socketPath)
	go s.acceptLoop(ctx)
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer close(s.doneCh)
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		// Short accept deadline so the stop channel is checked regularly.
		if err := s.listener.(*net.UnixListener).SetDeadline(time.Now().Add(time.Second)); err != nil {
			fmt.Fprintf(os.Stderr, "[control] failed to set deadline: %v\n", err)
			continue
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-s.stopCh:
				return
			default:
			}
			fmt.Fprintf(os.Stderr, "[control] accept error: %v\n", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		fmt.Fprintf(os.Stderr, "[control] failed to set read deadline: %v\n", err)
		return
	}

	var cmd Command
	if err := json.NewDecoder(conn).Decode(&cmd); err != nil {
		s.send(conn, Response{Success: false, Message: "bad command", Error: err.Error()})
		return
	}
	if cmd.Timestamp.IsZero() {
		cmd.Timestamp = time.Now()
	}

	var resp Response
	if s.onCommand == nil {
		resp = Response{Success: false, Message: "no handler registered", Error: "server misconfiguration"}
	} else if data, err := s.onCommand(cmd); err != nil {
		resp = Response{Success: false, Message: fmt.Sprintf("command failed: %v", err), Error: err.Error()}
	} else {
		resp = Response{Success: true, Message: fmt.Sprintf("command %q ok", cmd.Type), Data: data}
	}
	if err := s.send(conn, resp); err != nil {
		fmt.Fprintf(os.Stderr, "[control] failed to send response: %v\n", err)
	}
}

func (s *Server) send(conn net.Conn, resp Response) error {
	return json.NewEncoder(conn).Encode(resp)
}

// Stop closes the listener, waits for the accept loop with a bounded wait,
// and removes the socket file.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[control] error closing listener: %v\n", err)
		}
	}

	select {
	case <-s.doneCh:
	case <-time.After(5 * time.Second):
		fmt.Fprintf(os.Stderr, "[control] timeout waiting for shutdown\n")
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		fmt.Fprintf(os.Stderr, "[control] failed to remove socket file: %v\n", err)
	}
	return nil
}

// SocketPath returns the socket location.
func (s *Server) SocketPath() string {
	return s.socketPath
}
