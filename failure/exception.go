package failure

import (
	"fmt"
	"strings"
)

// Exception is a loggable snapshot of an error and its causes.
type Exception struct {
	Type    string     `json:"type"`
	Message string     `json:"message"`
	Cause   *Exception `json:"cause,omitempty"`
}

// Describe snapshots err and its wrap chain, newest first. Multi-errors are
// flattened in walk order.
func Describe(err error) *Exception {
	chain := Chain(err, DefaultMaxDepth)
	if len(chain) == 0 {
		return nil
	}
	head := &Exception{Type: TypeName(chain[0]), Message: Message(chain[0])}
	cur := head
	for _, e := range chain[1:] {
		cur.Cause = &Exception{Type: TypeName(e), Message: Message(e)}
		cur = cur.Cause
	}
	return head
}

// String renders the chain as "type: message <- type: message".
func (e *Exception) String() string {
	var b strings.Builder
	for cur := e; cur != nil; cur = cur.Cause {
		if cur != e {
			b.WriteString(" <- ")
		}
		b.WriteString(cur.Type)
		b.WriteString(": ")
		b.WriteString(cur.Message)
	}
	return b.String()
}

// TypeName returns the dynamic type of err, e.g. "*resilience.CallNotPermittedError".
func TypeName(err error) string {
	if err == nil {
		return "<nil>"
	}
	if p, ok := err.(*PanicError); ok {
		return p.TypeName()
	}
	return fmt.Sprintf("%T", err)
}

// Message returns err.Error(), recovering from a panicking Error method.
func Message(err error) (msg string) {
	if err == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("<Error() panicked: %v>", r)
		}
	}()
	return err.Error()
}

// PanicError carries a recovered panic value so it can be classified and
// logged like an error.
type PanicError struct {
	Value any
}

// Error implements error.
func (p *PanicError) Error() string {
	return fmt.Sprint(p.Value)
}

// TypeName is "panic", the exception type recorded for panics.
func (p *PanicError) TypeName() string {
	return "panic"
}

// Unwrap returns the panic value when it is itself an error.
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}
