package telnet_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dragonfair/internal/frontend/telnet"
)

func pipe(t *testing.T) (*telnet.Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return telnet.NewConn(server, time.Second, time.Second), client
}

func TestConn_ReadLineDropsCommands(t *testing.T) {
	conn, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte{
			telnet.IAC, telnet.DO, telnet.OptSuppressGoAhead,
			'h', 'i', 0x07,
			telnet.IAC, telnet.SB, 24, 0, 'x', 't', 'e', 'r', 'm', telnet.IAC, telnet.SE,
			'\t', '!', '\r', '\n',
		})
	}()
	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "hi\t!", line)
}

func TestConn_ReadSecretTogglesEcho(t *testing.T) {
	conn, client := pipe(t)
	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 3)
		_, _ = io.ReadFull(client, buf)
		_, _ = client.Write([]byte("  sesame \n"))
		rest := make([]byte, 5)
		_, _ = io.ReadFull(client, rest)
		got <- append(buf, rest...)
	}()
	code, err := conn.ReadSecret()
	require.NoError(t, err)
	assert.Equal(t, "sesame", code)
	assert.Equal(t, []byte{
		telnet.IAC, telnet.WILL, telnet.OptEcho,
		telnet.IAC, telnet.WONT, telnet.OptEcho, '\r', '\n',
	}, <-got)
}

func TestConn_WriteLineUsesCRLF(t *testing.T) {
	conn, client := pipe(t)
	go func() { _ = conn.WriteLine("one\ntwo") }()
	buf := make([]byte, len("one\r\ntwo\r\n"))
	_, err := io.ReadFull(client, buf)
	require.NoError(t, err)
	assert.Equal(t, "one\r\ntwo\r\n", string(buf))
}
