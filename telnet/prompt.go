package telnet

import (
	"errors"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// waitForPrompt accumulates text from the connection until the buffer ends in
// a shell prompt, the timeout elapses or the stream closes. It always returns
// whatever was captured; a missing prompt is the caller's problem, not an
// error. Reads use a short deadline so the overall budget is re-checked
// between reads instead of blocking on one read.
func (s *Session) waitForPrompt(timeout time.Duration) string {
	var buf strings.Builder
	deadline := time.Now().Add(timeout)
	chunk := make([]byte, 1024)

	for time.Now().Before(deadline) {
		s.conn.SetReadDeadline(time.Now().Add(s.ReadInterval))
		n, err := s.conn.Read(chunk)
		if n > 0 {
			data, ferr := s.nvt.filter(chunk[:n])
			buf.Write(data)
			if ferr != nil {
				s.log.Debug("error negotiating telnet options", zap.Error(ferr))
				return buf.String()
			}
			if endsWithPrompt(buf.String()) {
				return buf.String()
			}
		}
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				// no bytes within the read interval, keep waiting
				continue
			}
			// EOF or reset, return what we have
			return buf.String()
		}
	}

	return buf.String()
}

// endsWithPrompt reports whether the captured text ends in $, # or >,
// optionally followed by a single space.
func endsWithPrompt(buf string) bool {
	if strings.HasSuffix(buf, " ") {
		buf = buf[:len(buf)-1]
	}
	if buf == "" {
		return false
	}
	switch buf[len(buf)-1] {
	case '$', '#', '>':
		return true
	}
	return false
}
