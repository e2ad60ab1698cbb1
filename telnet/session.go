// Package telnet drives an interactive diagnostic session on a GPON device
// over its legacy telnet shell: connect, answer the login/password prompts,
// run commands and capture whatever the device prints up to the next prompt.
//
// The shell offers no framing at all, so command/response correlation relies
// entirely on prompt detection with bounded waits.
package telnet

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	connectTimeout = 15 * time.Second
	loginTimeout   = 10 * time.Second
	commandTimeout = 30 * time.Second
	readInterval   = 1 * time.Second
)

var (
	ErrNoLoginPrompt    = errors.New("no login prompt received")
	ErrNoPasswordPrompt = errors.New("no password prompt received")
)

// Session is one telnet connection to one device. It is used by a single
// poll attempt at a time and closed when the attempt ends.
type Session struct {
	conn net.Conn
	log  *zap.Logger
	nvt  nvtFilter

	LoginTimeout   time.Duration
	CommandTimeout time.Duration
	ReadInterval   time.Duration
}

// Dial opens a telnet connection to host:port with a bounded connect timeout.
func Dial(log *zap.Logger, host string, port int) (*Session, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return NewSession(log, conn), nil
}

// NewSession wraps an established connection. Timeouts start at their
// defaults and may be lowered by the caller before use.
func NewSession(log *zap.Logger, conn net.Conn) *Session {
	return &Session{
		conn:           conn,
		log:            log,
		nvt:            nvtFilter{w: conn},
		LoginTimeout:   loginTimeout,
		CommandTimeout: commandTimeout,
		ReadInterval:   readInterval,
	}
}

// Login performs the interactive login exchange: wait for a login/username
// prompt, send the username, wait for the password prompt, send the password,
// then consume the shell banner so the session is positioned at a prompt.
func (s *Session) Login(username, password string) error {
	banner := s.waitForPrompt(s.LoginTimeout)
	s.log.Debug("initial response", zap.String("data", snippet(banner)))

	lower := strings.ToLower(banner)
	if !strings.Contains(lower, "login:") && !strings.Contains(lower, "username:") {
		return ErrNoLoginPrompt
	}
	if err := s.sendLine(username); err != nil {
		return fmt.Errorf("sending username: %w", err)
	}

	response := s.waitForPrompt(s.LoginTimeout)
	s.log.Debug("password prompt", zap.String("data", snippet(response)))

	if !strings.Contains(strings.ToLower(response), "password:") {
		return ErrNoPasswordPrompt
	}
	if err := s.sendLine(password); err != nil {
		return fmt.Errorf("sending password: %w", err)
	}

	shell := s.waitForPrompt(s.LoginTimeout)
	s.log.Debug("shell prompt", zap.String("data", snippet(shell)))

	return nil
}

// Exec sends one command and returns everything the device printed up to the
// next prompt. A response without a prompt within the command timeout is
// returned as-is; callers treat a value-less response as a parse miss.
func (s *Session) Exec(command string) (string, error) {
	if err := s.sendLine(command); err != nil {
		return "", fmt.Errorf("sending command %q: %w", command, err)
	}
	return s.waitForPrompt(s.CommandTimeout), nil
}

// Close releases the connection. Best effort, a close failure is only logged.
func (s *Session) Close() {
	if err := s.conn.Close(); err != nil {
		s.log.Debug("error closing connection", zap.Error(err))
	}
}

func (s *Session) sendLine(line string) error {
	_, err := s.conn.Write([]byte(line + "\r\n"))
	return err
}

func snippet(s string) string {
	if len(s) > 100 {
		return s[:100]
	}
	return s
}
