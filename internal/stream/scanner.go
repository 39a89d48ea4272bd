package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Frame is one discrete unit of the event stream: an id, an event type, and
// a JSON payload, delimited on the wire by a blank line.
type Frame struct {
	ID    string
	Event string
	Data  json.RawMessage
}

// complete reports whether all three required fields are present
func (f *Frame) complete() bool {
	return f.ID != "" && f.Event != "" && len(f.Data) > 0
}

// Scanner reads frames off an event stream. Malformed frames (missing any of
// id, event, or data) are skipped without failing the stream.
type Scanner struct {
	sc      *bufio.Scanner
	dropped int
}

// NewScanner creates a frame scanner over r
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Scanner{sc: sc}
}

// Dropped returns how many malformed frames were discarded so far
func (s *Scanner) Dropped() int {
	return s.dropped
}

// Next returns the next well-formed frame. It returns io.EOF when the
// stream ends, or the scan error if the underlying read failed.
func (s *Scanner) Next() (Frame, error) {
	var f Frame
	started := false

	for s.sc.Scan() {
		line := s.sc.Text()

		if line == "" {
			if !started {
				continue
			}
			if f.complete() {
				return f, nil
			}
			// Frame boundary with required fields missing: drop it and
			// keep reading.
			s.dropped++
			f = Frame{}
			started = false
			continue
		}

		started = true
		switch {
		case strings.HasPrefix(line, "id:"):
			f.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		case strings.HasPrefix(line, "event:"):
			f.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			f.Data = json.RawMessage(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		default:
			// Comment or unknown field, ignored per the wire format.
		}
	}

	if err := s.sc.Err(); err != nil {
		return Frame{}, err
	}
	if started && f.complete() {
		// Stream ended exactly at a frame without a trailing blank line.
		return f, nil
	}
	return Frame{}, io.EOF
}
