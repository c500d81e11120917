package intercept

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/calltrace/auth"
	"github.com/jonwraymond/calltrace/failure"
	"github.com/jonwraymond/calltrace/observe"
	"github.com/jonwraymond/calltrace/redact"
)

// Record messages.
const (
	MsgParams       = "call params"
	MsgResult       = "call completed"
	MsgFailure      = "call failed"
	MsgRejection    = "call rejected by circuit breaker"
	MsgRecordFailed = "call record construction failed"
)

// Record field keys.
const (
	KeyCallID           = "call.correlation_id"
	KeyCall             = "call.id"
	KeyType             = "call.type"
	KeyOperation        = "call.operation"
	KeyDescription      = "call.description"
	KeyResult           = "result"
	KeyStatus           = "status"
	KeyBody             = "body"
	KeyElapsed          = "elapsedMs"
	KeyExceptionType    = "exception.type"
	KeyExceptionMessage = "exception.message"
	KeyBreaker          = "breaker"
	KeyClassification   = "classification"
	KeyArguments        = "arguments"
	KeyRequestURL       = "request.url"
	KeyRequestMethod    = "request.method"
	KeyRequestClientIP  = "request.client_ip"
	KeyRequestParams    = "request.params"
	KeyRequestHeaders   = "request.headers"
	KeyPrincipal        = "principal"
	KeyError            = "error"
)

// Envelope is a result carrying a status code and a body. The status and
// the redacted body are logged separately.
type Envelope interface {
	StatusCode() int
	Body() any
}

// call holds what every record of one invocation shares.
type call struct {
	inv    Invocation
	cfg    CallConfig
	meta   observe.CallMeta
	id     string
	engine *redact.Engine
}

func (i *Interceptor) newCall(inv Invocation, cfg CallConfig) *call {
	c := &call{
		inv: inv,
		cfg: cfg,
		meta: observe.CallMeta{
			Type:        inv.Type.Name,
			Operation:   inv.Operation.Name,
			Description: cfg.Description,
			Breaker:     inv.Operation.Breaker,
		},
		engine: i.engine,
	}
	if i.newID != nil {
		c.id = i.newID()
	}
	return c
}

// base returns the identity fields that lead every record.
func (c *call) base(extra int) []observe.Field {
	fields := make([]observe.Field, 0, 5+extra)
	if c.id != "" {
		fields = append(fields, observe.F(KeyCallID, c.id))
	}
	fields = append(fields, observe.F(KeyCall, c.meta.ID()))
	if c.meta.Type != "" {
		fields = append(fields, observe.F(KeyType, c.meta.Type))
	}
	fields = append(fields, observe.F(KeyOperation, c.meta.Operation))
	if c.meta.Description != "" {
		fields = append(fields, observe.F(KeyDescription, c.meta.Description))
	}
	return fields
}

// paramName is the record key for argument idx.
func (c *call) paramName(idx int) string {
	if params := c.inv.Operation.Params; idx < len(params) && params[idx].Name != "" {
		return params[idx].LogName()
	}
	return "arg" + strconv.Itoa(idx)
}

func (c *call) paramsRecord() observe.Record {
	fields := c.base(len(c.inv.Args))
	for idx, arg := range c.inv.Args {
		fields = append(fields, observe.F(c.paramName(idx), c.engine.Render(arg)))
	}
	return observe.Record{Level: observe.LevelInfo, Message: MsgParams, Fields: fields}
}

func (c *call) resultRecord(result any, elapsed time.Duration) observe.Record {
	fields := c.base(3)
	if c.cfg.LogResponse {
		if env, ok := result.(Envelope); ok {
			fields = append(fields,
				observe.F(KeyStatus, env.StatusCode()),
				observe.F(KeyBody, c.engine.Render(env.Body())),
			)
		} else {
			fields = append(fields, observe.F(KeyResult, c.engine.Render(result)))
		}
	}
	if c.cfg.LogExecutionTime {
		fields = append(fields, observe.F(KeyElapsed, elapsed.Milliseconds()))
	}
	return observe.Record{Level: observe.LevelInfo, Message: MsgResult, Fields: fields}
}

// failureRecord logs err. A breaker rejection carries the arguments and
// request details; any other failure only its type and message, never its
// causes.
func (c *call) failureRecord(ctx context.Context, err error, cls failure.Classification, elapsed time.Duration) observe.Record {
	if cls.BreakerRejection {
		return c.rejectionRecord(ctx, err, cls, elapsed)
	}

	fields := c.base(4)
	fields = append(fields,
		observe.F(KeyExceptionType, failure.TypeName(err)),
		observe.F(KeyExceptionMessage, failure.Message(err)),
	)
	if c.cfg.LogExecutionTime {
		fields = append(fields, observe.F(KeyElapsed, elapsed.Milliseconds()))
	}
	return observe.Record{Level: observe.LevelError, Message: MsgFailure, Fields: fields}
}

func (c *call) rejectionRecord(ctx context.Context, err error, cls failure.Classification, elapsed time.Duration) observe.Record {
	fields := c.base(12)
	if cls.Breaker != "" {
		fields = append(fields, observe.F(KeyBreaker, cls.Breaker))
	}
	fields = append(fields,
		observe.F(KeyClassification, string(cls.Reason)),
		observe.F(KeyArguments, c.arguments()),
		observe.F(KeyExceptionType, failure.TypeName(err)),
		observe.F(KeyExceptionMessage, failure.Message(err)),
	)
	if c.cfg.LogExecutionTime {
		fields = append(fields, observe.F(KeyElapsed, elapsed.Milliseconds()))
	}
	if info, ok := RequestInfoFromContext(ctx); ok {
		fields = append(fields,
			observe.F(KeyRequestURL, info.URL),
			observe.F(KeyRequestMethod, info.Method),
			observe.F(KeyRequestClientIP, info.ClientIP),
		)
		if len(info.Params) > 0 {
			fields = append(fields, observe.F(KeyRequestParams, c.engine.Render(info.Params)))
		}
		fields = append(fields, observe.F(KeyRequestHeaders, c.engine.Render(info.Headers)))
	}
	if principal := auth.PrincipalFromContext(ctx); principal != "" {
		fields = append(fields, observe.F(KeyPrincipal, principal))
	}
	return observe.Record{Level: observe.LevelWarn, Message: MsgRejection, Fields: fields}
}

// arguments renders every argument, in declared order, as "{name=value, ...}".
func (c *call) arguments() string {
	var b strings.Builder
	b.WriteByte('{')
	for idx, arg := range c.inv.Args {
		if idx > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.paramName(idx))
		b.WriteByte('=')
		b.WriteString(c.engine.Render(arg))
	}
	b.WriteByte('}')
	return b.String()
}

func (c *call) buildFailureRecord(cause any) observe.Record {
	fields := c.base(1)
	fields = append(fields, observe.F(KeyError, causeText(cause)))
	return observe.Record{Level: observe.LevelWarn, Message: MsgRecordFailed, Fields: fields}
}

func causeText(cause any) (s string) {
	defer func() {
		if recover() != nil {
			s = fmt.Sprintf("%T", cause)
		}
	}()
	return fmt.Sprint(cause)
}
