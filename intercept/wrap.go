package intercept

import (
	"context"
	"net/http"
)

// Call intercepts fn and returns its typed result.
func Call[R any](ctx context.Context, i *Interceptor, inv Invocation, fn func(context.Context) (R, error)) (R, error) {
	out, err := i.Intercept(ctx, inv, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	r, _ := out.(R)
	return r, err
}

// Wrap0 returns fn intercepted as operation op of typ.
func Wrap0[R any](i *Interceptor, typ TypeMeta, op OperationMeta, fn func(context.Context) (R, error)) func(context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		return Call(ctx, i, Invocation{Type: typ, Operation: op}, fn)
	}
}

// Wrap1 returns fn intercepted as operation op of typ.
func Wrap1[A, R any](i *Interceptor, typ TypeMeta, op OperationMeta, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	return func(ctx context.Context, a A) (R, error) {
		inv := Invocation{Type: typ, Operation: op, Args: []any{a}}
		return Call(ctx, i, inv, func(ctx context.Context) (R, error) {
			return fn(ctx, a)
		})
	}
}

// Wrap2 returns fn intercepted as operation op of typ.
func Wrap2[A, B, R any](i *Interceptor, typ TypeMeta, op OperationMeta, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	return func(ctx context.Context, a A, b B) (R, error) {
		inv := Invocation{Type: typ, Operation: op, Args: []any{a, b}}
		return Call(ctx, i, inv, func(ctx context.Context) (R, error) {
			return fn(ctx, a, b)
		})
	}
}

// Response is an Envelope pairing an HTTP status with a body.
type Response[T any] struct {
	Status int
	Value  T
}

// StatusCode implements Envelope.
func (r Response[T]) StatusCode() int { return r.Status }

// Body implements Envelope.
func (r Response[T]) Body() any { return r.Value }

// OK returns a 200 response carrying v.
func OK[T any](v T) Response[T] {
	return Response[T]{Status: http.StatusOK, Value: v}
}

// Created returns a 201 response carrying v.
func Created[T any](v T) Response[T] {
	return Response[T]{Status: http.StatusCreated, Value: v}
}

var _ Envelope = Response[any]{}
