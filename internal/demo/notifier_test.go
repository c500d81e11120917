package demo

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/calltrace/observe"
	"github.com/jonwraymond/calltrace/resilience"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (c *captureNotifier) Notify(_ context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return c.err
}

func (c *captureNotifier) all() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.sent...)
}

func TestTransitionNotifier_States(t *testing.T) {
	tests := []struct {
		to        resilience.State
		wantState string
		wantMsg   string
	}{
		{to: resilience.StateOpen, wantState: StateOpen, wantMsg: MessageOpen},
		{to: resilience.StateHalfOpen, wantState: StateHalfOpen, wantMsg: MessageHalfOpen},
		{to: resilience.StateClosed, wantState: StateClosed, wantMsg: MessageClosed},
	}
	for _, tt := range tests {
		t.Run(tt.wantState, func(t *testing.T) {
			capture := &captureNotifier{}
			tn := NewTransitionNotifier(nil, capture)
			tn.OnStateChange(BreakerName, resilience.StateClosed, tt.to)

			sent := capture.all()
			if len(sent) != 1 {
				t.Fatalf("notifications = %d, want 1", len(sent))
			}
			n := sent[0]
			if n.Breaker != BreakerName || n.State != tt.wantState || n.Message != tt.wantMsg {
				t.Errorf("notification = %+v", n)
			}
			if n.At.IsZero() {
				t.Error("notification time not set")
			}
		})
	}
}

func TestTransitionNotifier_UnknownStateSkipped(t *testing.T) {
	capture := &captureNotifier{}
	NewTransitionNotifier(nil, capture).OnStateChange("x", resilience.StateClosed, resilience.StateUnknown)
	if len(capture.all()) != 0 {
		t.Error("unknown state should not notify")
	}
}

func TestTransitionNotifier_NotifierErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("debug", &buf)
	capture := &captureNotifier{err: errors.New("smtp down")}

	NewTransitionNotifier(logger, capture).OnStateChange(BreakerName, resilience.StateClosed, resilience.StateOpen)

	if !strings.Contains(buf.String(), "breaker notification failed") || !strings.Contains(buf.String(), "smtp down") {
		t.Errorf("log output = %s", buf.String())
	}
}

func TestTransitionNotifier_WiredToRegistry(t *testing.T) {
	capture := &captureNotifier{}
	tn := NewTransitionNotifier(nil, capture)
	reg := resilience.NewRegistry(resilience.CircuitBreakerConfig{
		ResetTimeout:  time.Hour,
		OnStateChange: tn.OnStateChange,
	})

	reg.CircuitBreaker(BreakerName).Trip()
	reg.CircuitBreaker(BreakerName).Reset()

	sent := capture.all()
	if len(sent) != 2 || sent[0].State != StateOpen || sent[1].State != StateClosed {
		t.Errorf("notifications = %+v", sent)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: observe.NewLoggerWithWriter("info", &buf)}

	if err := n.Notify(context.Background(), Notification{Breaker: "b", State: StateOpen, Message: MessageOpen}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"state":"OPEN"`) {
		t.Errorf("log output = %s", buf.String())
	}
}
