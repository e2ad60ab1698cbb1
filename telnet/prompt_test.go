package telnet

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSession(conn net.Conn) *Session {
	s := NewSession(zap.NewNop(), conn)
	s.LoginTimeout = 200 * time.Millisecond
	s.CommandTimeout = 200 * time.Millisecond
	s.ReadInterval = 10 * time.Millisecond
	return s
}

func TestEndsWithPrompt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty", "", false},
		{"dollar", "user@host$", true},
		{"hash", "host#", true},
		{"angle", "OLT>", true},
		{"dollar space", "user@host$ ", true},
		{"hash space", "host# ", true},
		{"angle space", "OLT> ", true},
		{"only space", " ", false},
		{"two spaces after prompt", ">  ", false},
		{"login prompt", "login: ", false},
		{"mid line", "a > b", false},
		{"plain text", "some banner", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, endsWithPrompt(tt.input))
		})
	}
}

func TestWaitForPromptReturnsOnPrompt(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		server.Write([]byte("Welcome\nOLT> "))
	}()

	s := testSession(client)
	start := time.Now()
	got := s.waitForPrompt(5 * time.Second)
	require.Equal(t, "Welcome\nOLT> ", got)
	// returned on the prompt, not on the timeout
	require.Less(t, time.Since(start), time.Second)
	<-done
	server.Close()
}

func TestWaitForPromptPartialOnTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go server.Write([]byte("Username: "))

	s := testSession(client)
	start := time.Now()
	got := s.waitForPrompt(100 * time.Millisecond)
	require.Equal(t, "Username: ", got)
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitForPromptReturnsOnEOF(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		server.Write([]byte("goodbye"))
		server.Close()
	}()

	s := testSession(client)
	start := time.Now()
	got := s.waitForPrompt(5 * time.Second)
	require.Equal(t, "goodbye", got)
	require.Less(t, time.Since(start), time.Second)
}

func TestWaitForPromptAcrossChunks(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		server.Write([]byte("some output"))
		time.Sleep(30 * time.Millisecond)
		server.Write([]byte("\n$ "))
	}()

	s := testSession(client)
	got := s.waitForPrompt(time.Second)
	require.Equal(t, "some output\n$ ", got)
}

func TestWaitForPromptRefusesNegotiation(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	refusal := make(chan []byte, 1)
	go func() {
		// IAC DO ECHO in front of the prompt
		server.Write([]byte{cmdIAC, cmdDo, 1, 'h', 'i', '>', ' '})
		buf := make([]byte, 3)
		n, _ := server.Read(buf)
		refusal <- buf[:n]
	}()

	s := testSession(client)
	got := s.waitForPrompt(time.Second)
	require.Equal(t, "hi> ", got)
	require.Equal(t, []byte{cmdIAC, cmdWont, 1}, <-refusal)
}
