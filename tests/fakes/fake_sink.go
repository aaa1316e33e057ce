package fakes

import (
	"fmt"
	"sync"

	"github.com/systmms/vaultfetch/internal/sink"
)

// SinkEvent is one call made on a RecordingSink
type SinkEvent struct {
	Op      string // "mask" or "publish"
	Channel sink.Channel
	Name    string
	Value   string
}

func (e SinkEvent) String() string {
	if e.Op == "mask" {
		return "mask"
	}
	return fmt.Sprintf("publish %s %s", e.Channel, e.Name)
}

// RecordingSink is a sink.SecretSink that remembers every call in order.
//
// Example usage:
//
//	rec := fakes.NewRecordingSink()
//	rec.FailOn("publish env DB_PASSWORD", errors.New("disk full"))
type RecordingSink struct {
	mu     sync.Mutex
	events []SinkEvent
	failOn map[string]error
}

// NewRecordingSink creates an empty RecordingSink
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{failOn: make(map[string]error)}
}

// FailOn makes the call whose String() equals op return err
func (s *RecordingSink) FailOn(op string, err error) *RecordingSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[op] = err
	return s
}

// Mask records a mask call
func (s *RecordingSink) Mask(value string) error {
	return s.record(SinkEvent{Op: "mask", Value: value})
}

// Publish records a publish call
func (s *RecordingSink) Publish(ch sink.Channel, name, value string) error {
	return s.record(SinkEvent{Op: "publish", Channel: ch, Name: name, Value: value})
}

// Events returns a copy of all recorded calls
func (s *RecordingSink) Events() []SinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SinkEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Ops returns the String() form of every recorded call
func (s *RecordingSink) Ops() []string {
	events := s.Events()
	ops := make([]string, len(events))
	for i, e := range events {
		ops[i] = e.String()
	}
	return ops
}

// Published returns the last value published under name on ch
func (s *RecordingSink) Published(ch sink.Channel, name string) (string, bool) {
	events := s.Events()
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Op == "publish" && e.Channel == ch && e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

func (s *RecordingSink) record(e SinkEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, e)
	return s.failOn[e.String()]
}

var _ sink.SecretSink = (*RecordingSink)(nil)
