package failure

import (
	"errors"
	"reflect"
	"strings"

	"github.com/jonwraymond/calltrace/resilience"
)

// DefaultMaxDepth bounds the wrap-chain walk.
const DefaultMaxDepth = 64

// DefaultMarkers are matched, case-sensitively, against the message of
// the top-level error.
var DefaultMarkers = []string{"CircuitBreaker"}

// StateProvider reports breaker state. *resilience.Registry implements it.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Unknown names report resilience.StateUnknown.
type StateProvider interface {
	StateOf(name string) resilience.State
	AllStates() map[string]resilience.State
}

var _ StateProvider = (*resilience.Registry)(nil)

// Reason names the rule that decided a classification.
type Reason string

const (
	// ReasonNone means no rule matched.
	ReasonNone Reason = "none"
	// ReasonRejection means the error is a breaker rejection.
	ReasonRejection Reason = "rejection"
	// ReasonCause means a breaker rejection is wrapped inside the error.
	ReasonCause Reason = "cause"
	// ReasonBreakerOpen means the call's own breaker is open.
	ReasonBreakerOpen Reason = "breaker-open"
	// ReasonAnyBreakerOpen means some breaker is open and the call named none.
	ReasonAnyBreakerOpen Reason = "any-breaker-open"
	// ReasonMessage means an error message mentions the circuit breaker.
	ReasonMessage Reason = "message"
)

// Classification is the outcome of Classify.
type Classification struct {
	// BreakerRejection reports whether the failure is breaker-related.
	BreakerRejection bool

	// Reason is the rule that matched.
	Reason Reason

	// Breaker names the breaker involved, when one is known.
	Breaker string
}

// Classifier decides whether errors are breaker rejections.
//
// Contract:
// - Concurrency: safe for concurrent use; it only reads the provider.
// - Classify never panics and never modifies the error.
type Classifier struct {
	provider  StateProvider
	markers   []string
	maxDepth  int
	isRejects func(error) bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMarkers replaces the message markers. Matching stays
// case-sensitive; pass each spelling to accept.
func WithMarkers(markers ...string) Option {
	return func(c *Classifier) {
		c.markers = make([]string, 0, len(markers))
		for _, m := range markers {
			if m = strings.TrimSpace(m); m != "" {
				c.markers = append(c.markers, m)
			}
		}
	}
}

// WithMaxDepth sets how many errors the chain walk visits at most.
func WithMaxDepth(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithRejectionMatcher adds a predicate recognising rejection errors from
// other breaker implementations.
func WithRejectionMatcher(fn func(error) bool) Option {
	return func(c *Classifier) {
		if fn == nil {
			return
		}
		prev := c.isRejects
		c.isRejects = func(err error) bool { return prev(err) || fn(err) }
	}
}

// NewClassifier creates a classifier reading breaker state from provider,
// which may be nil.
func NewClassifier(provider StateProvider, opts ...Option) *Classifier {
	c := &Classifier{
		provider:  provider,
		markers:   DefaultMarkers,
		maxDepth:  DefaultMaxDepth,
		isRejects: isRejection,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify applies the decision order to err. breaker is the name of the
// breaker guarding the call, or "" when unknown. A nil err is never a
// rejection.
func (c *Classifier) Classify(err error, breaker string) Classification {
	if err == nil {
		return Classification{Reason: ReasonNone}
	}

	chain := Chain(err, c.maxDepth)

	if c.isRejects(chain[0]) {
		return Classification{BreakerRejection: true, Reason: ReasonRejection, Breaker: rejectingBreaker(chain[0], breaker)}
	}
	for _, e := range chain[1:] {
		if c.isRejects(e) {
			return Classification{BreakerRejection: true, Reason: ReasonCause, Breaker: rejectingBreaker(e, breaker)}
		}
	}

	if c.provider != nil {
		if breaker != "" {
			if c.stateOf(breaker) == resilience.StateOpen {
				return Classification{BreakerRejection: true, Reason: ReasonBreakerOpen, Breaker: breaker}
			}
		} else if name, ok := c.anyOpen(); ok {
			return Classification{BreakerRejection: true, Reason: ReasonAnyBreakerOpen, Breaker: name}
		}
	}

	if c.mentionsBreaker(err) {
		return Classification{BreakerRejection: true, Reason: ReasonMessage, Breaker: breaker}
	}

	return Classification{Reason: ReasonNone, Breaker: breaker}
}

// Classify is a convenience for NewClassifier(provider).Classify(err, breaker).
func Classify(err error, breaker string, provider StateProvider) Classification {
	return NewClassifier(provider).Classify(err, breaker)
}

func (c *Classifier) stateOf(name string) (state resilience.State) {
	defer func() {
		if recover() != nil {
			state = resilience.StateUnknown
		}
	}()
	return c.provider.StateOf(name)
}

// anyOpen returns the alphabetically first open breaker.
func (c *Classifier) anyOpen() (name string, ok bool) {
	defer func() {
		if recover() != nil {
			name, ok = "", false
		}
	}()
	for n, state := range c.provider.AllStates() {
		if state == resilience.StateOpen && (!ok || n < name) {
			name, ok = n, true
		}
	}
	return name, ok
}

// mentionsBreaker reports whether err's own message contains a marker.
func (c *Classifier) mentionsBreaker(err error) bool {
	msg := Message(err)
	for _, m := range c.markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Chain returns err followed by the errors it wraps, newest first, visiting
// at most maxDepth errors. Both Unwrap() error and Unwrap() []error are
// followed; a multi-error's branches are walked in order. An error seen
// twice is not revisited, so malformed cyclic chains terminate.
func Chain(err error, maxDepth int) []error {
	if err == nil {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var (
		out   []error
		seen  = make(map[any]struct{})
		stack = []error{err}
	)
	for len(stack) > 0 && len(out) < maxDepth {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e == nil {
			continue
		}
		if !markSeen(seen, e) {
			continue
		}
		out = append(out, e)

		switch u := e.(type) {
		case interface{ Unwrap() error }:
			stack = append(stack, u.Unwrap())
		case interface{ Unwrap() []error }:
			errs := u.Unwrap()
			for i := len(errs) - 1; i >= 0; i-- {
				stack = append(stack, errs[i])
			}
		}
	}
	return out
}

// markSeen records err and reports whether it was new. Errors that cannot
// be used as map keys are always treated as new.
func markSeen(seen map[any]struct{}, err error) (fresh bool) {
	if !reflect.TypeOf(err).Comparable() {
		return true
	}
	defer func() {
		if recover() != nil {
			fresh = true
		}
	}()
	if _, dup := seen[err]; dup {
		return false
	}
	seen[err] = struct{}{}
	return true
}

func isRejection(err error) bool {
	if err == resilience.ErrCircuitOpen {
		return true
	}
	_, ok := err.(*resilience.CallNotPermittedError)
	return ok
}

func rejectingBreaker(err error, fallback string) string {
	var rejected *resilience.CallNotPermittedError
	if errors.As(err, &rejected) && rejected.Breaker != "" {
		return rejected.Breaker
	}
	return fallback
}
