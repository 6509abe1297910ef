package control

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerRoundTrip(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "director.sock")
	srv, err := NewServer(socket, func(cmd Command) (map[string]any, error) {
		if cmd.Type == "status" {
			return map[string]any{"mood": "neutral"}, nil
		}
		return nil, fmt.Errorf("unknown command %q", cmd.Type)
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop()

	client := NewClient(socket)
	resp, err := client.Status()
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "neutral", resp.Data["mood"])

	resp, err = client.SendCommand(Command{Type: "bogus"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "bogus")
}

func TestInjectCommand(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "director.sock")
	var got Command
	srv, err := NewServer(socket, func(cmd Command) (map[string]any, error) {
		got = cmd
		return map[string]any{"id": "abc"}, nil
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop()

	resp, err := NewClient(socket).Inject("chat", "hello there", "viewer1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "inject", got.Type)
	assert.Equal(t, "chat", got.Source)
	assert.Equal(t, "viewer1", got.Username)
}

func TestStopRemovesSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "director.sock")
	srv, err := NewServer(socket, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	require.NoError(t, srv.Stop())

	_, err = NewClient(socket).Status()
	assert.Error(t, err)
}
