package console

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresSocket(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewDefaultsUsername(t *testing.T) {
	c, err := New(Config{SocketPath: "/tmp/test.sock"})
	require.NoError(t, err)
	assert.Equal(t, "operator", c.username)
}

func TestUnknownCommand(t *testing.T) {
	c, err := New(Config{SocketPath: "/tmp/test.sock"})
	require.NoError(t, err)

	err = c.processInput("/frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestUserCommandSwitchesUsername(t *testing.T) {
	c, err := New(Config{SocketPath: "/tmp/test.sock"})
	require.NoError(t, err)

	require.NoError(t, c.processInput("/user viewer42"))
	assert.Equal(t, "viewer42", c.username)

	require.Error(t, c.processInput("/user too many args"))
}

func TestQuitReturnsEOF(t *testing.T) {
	c, err := New(Config{SocketPath: "/tmp/test.sock"})
	require.NoError(t, err)
	assert.Equal(t, io.EOF, c.processInput("/quit"))
}

func TestSourceCommandsRequireText(t *testing.T) {
	c, err := New(Config{SocketPath: "/tmp/test.sock"})
	require.NoError(t, err)

	for _, cmd := range []string{"/mic", "/visual", "/audio", "/talk"} {
		assert.Error(t, c.processInput(cmd), cmd)
	}
}
