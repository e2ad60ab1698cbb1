package telnet

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// exchange is one step of a scripted fake device: wait until expect was
// received (skip when empty), then write send.
type exchange struct {
	expect string
	send   string
}

func runDevice(conn net.Conn, script []exchange) error {
	buf := make([]byte, 1024)
	for _, ex := range script {
		if ex.expect != "" {
			var got string
			for !strings.Contains(got, ex.expect) {
				n, err := conn.Read(buf)
				if err != nil {
					return fmt.Errorf("device read while waiting for %q (got %q): %w", ex.expect, got, err)
				}
				got += string(buf[:n])
			}
		}
		if ex.send != "" {
			if _, err := conn.Write([]byte(ex.send)); err != nil {
				return fmt.Errorf("device write: %w", err)
			}
		}
	}
	return nil
}

func startDevice(t *testing.T, conn net.Conn, script []exchange) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		errc <- runDevice(conn, script)
	}()
	return errc
}

func TestLoginAndExec(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	errc := startDevice(t, server, []exchange{
		{send: "login: "},
		{expect: "admin\r\n", send: "Password: "},
		{expect: "secret\r\n", send: "Welcome to ONU shell\nOLT> "},
		{expect: "diag pon get transceiver temperature\r\n", send: "Temp: 45.30 C\nOLT> "},
	})

	s := testSession(client)
	require.NoError(t, s.Login("admin", "secret"))

	out, err := s.Exec("diag pon get transceiver temperature")
	require.NoError(t, err)
	require.Contains(t, out, "45.30")
	// the shell banner was consumed during login, not leaked into the response
	require.NotContains(t, out, "Welcome")

	require.NoError(t, <-errc)
}

func TestLoginAcceptsUsernamePrompt(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	errc := startDevice(t, server, []exchange{
		{send: "Username: "},
		{expect: "admin\r\n", send: "Password: "},
		{expect: "secret\r\n", send: "$ "},
	})

	s := testSession(client)
	require.NoError(t, s.Login("admin", "secret"))
	require.NoError(t, <-errc)
}

func TestLoginNoLoginPrompt(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	startDevice(t, server, []exchange{
		{send: "# "},
	})

	s := testSession(client)
	require.ErrorIs(t, s.Login("admin", "secret"), ErrNoLoginPrompt)
}

func TestLoginNoPasswordPrompt(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	errc := startDevice(t, server, []exchange{
		{send: "login: "},
		{expect: "admin\r\n", send: "OLT> "},
	})

	s := testSession(client)
	require.ErrorIs(t, s.Login("admin", "secret"), ErrNoPasswordPrompt)
	require.NoError(t, <-errc)
}

func TestExecPartialResponseWithoutPrompt(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	startDevice(t, server, []exchange{
		{expect: "diag pon get transceiver voltage\r\n", send: "no prompt here"},
	})

	s := testSession(client)
	out, err := s.Exec("diag pon get transceiver voltage")
	require.NoError(t, err)
	require.Equal(t, "no prompt here", out)
}

func TestDialRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	require.NoError(t, listener.Close())

	start := time.Now()
	_, err = Dial(zap.NewNop(), "127.0.0.1", addr.Port)
	require.Error(t, err)
	require.Less(t, time.Since(start), connectTimeout)
}
