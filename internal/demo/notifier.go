package demo

import (
	"context"
	"time"

	"github.com/jonwraymond/calltrace/observe"
	"github.com/jonwraymond/calltrace/resilience"
)

// Notification describes one breaker transition.
type Notification struct {
	Breaker string
	State   string
	Message string
	At      time.Time
}

// Notifier delivers transition notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger observe.Logger
}

// Notify logs n at warn level.
func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.Logger.Warn(ctx, "circuit breaker notification",
		observe.F("breaker", n.Breaker),
		observe.F("state", n.State),
		observe.F("details", n.Message),
	)
	return nil
}

// Notification states and details.
const (
	StateOpen     = "OPEN"
	StateHalfOpen = "HALF_OPEN"
	StateClosed   = "CLOSED"

	MessageOpen     = "Circuit breaker has transitioned to OPEN state. Service is failing and no requests will be allowed."
	MessageHalfOpen = "Circuit breaker has transitioned to HALF_OPEN state. Limited requests will be allowed to test if service is recovered."
	MessageClosed   = "Circuit breaker has transitioned to CLOSED state. Service has recovered and is operating normally."
)

// TransitionNotifier logs breaker transitions and forwards a Notification
// for every transition into open, half-open or closed.
type TransitionNotifier struct {
	logger   observe.Logger
	notifier Notifier
	now      func() time.Time
}

// NewTransitionNotifier creates a TransitionNotifier. A nil notifier
// defaults to a LogNotifier over logger.
func NewTransitionNotifier(logger observe.Logger, notifier Notifier) *TransitionNotifier {
	if logger == nil {
		logger = observe.NopLogger()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &TransitionNotifier{logger: logger, notifier: notifier, now: time.Now}
}

// OnStateChange has the resilience.StateChangeFunc signature. Notifier
// errors are logged and dropped.
func (t *TransitionNotifier) OnStateChange(name string, from, to resilience.State) {
	ctx := context.Background()
	t.logger.Info(ctx, "circuit breaker transitioned",
		observe.F("breaker", name),
		observe.F("from", from.String()),
		observe.F("to", to.String()),
	)

	n := Notification{Breaker: name, At: t.now()}
	switch to {
	case resilience.StateOpen:
		n.State, n.Message = StateOpen, MessageOpen
	case resilience.StateHalfOpen:
		n.State, n.Message = StateHalfOpen, MessageHalfOpen
	case resilience.StateClosed:
		n.State, n.Message = StateClosed, MessageClosed
	default:
		return
	}
	if err := t.notifier.Notify(ctx, n); err != nil {
		t.logger.Error(ctx, "breaker notification failed",
			observe.F("breaker", name), observe.F("error", err.Error()))
	}
}

var _ resilience.StateChangeFunc = (*TransitionNotifier)(nil).OnStateChange
