package secret

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const refPrefix = "secretref:"

// refPattern matches a secret reference embedded in a longer value.
var refPattern = regexp.MustCompile(`secretref:([^:\s]+):(\S+)`)

// Resolver turns configuration values into their final form. Environment
// variables are expanded first, then every secretref:<provider>:<ref> is
// replaced by the provider's value.
//
// Contract:
//   - Concurrency: safe for concurrent use once providers are registered.
//   - Errors: failures wrap ErrMissingEnv, ErrProviderNotRegistered,
//     ErrEmptySecret or the provider's error, and never carry a resolved
//     value.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver returns a Resolver over providers. A strict resolver treats
// an empty resolved value as an error.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{providers: map[string]Provider{}, strict: strict}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Open builds a strict Resolver from reg's factories, each given a nil
// config. With no names every registered factory is used. A nil reg means
// DefaultRegistry.
func Open(reg *Registry, names ...string) (*Resolver, error) {
	if reg == nil {
		reg = DefaultRegistry
	}
	if len(names) == 0 {
		names = reg.Names()
	}
	r := NewResolver(true)
	for _, name := range names {
		p, err := reg.Create(name, nil)
		if err != nil {
			return nil, errors.Join(err, r.Close())
		}
		r.Register(p)
	}
	return r, nil
}

// Register adds provider under its Name, replacing any previous one.
func (r *Resolver) Register(provider Provider) {
	if provider != nil {
		r.providers[provider.Name()] = provider
	}
}

// Close closes every provider.
func (r *Resolver) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, p := range r.providers {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

// ResolveValue expands and resolves value. A nil Resolver only expands
// the environment.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	value, err := ExpandEnvStrict(value)
	if err != nil || r == nil {
		return value, err
	}
	if provider, ref, ok := ParseSecretRef(value); ok {
		return r.lookup(ctx, provider, ref)
	}

	var firstErr error
	out := refPattern.ReplaceAllStringFunc(value, func(m string) string {
		if firstErr != nil {
			return m
		}
		provider, ref, _ := ParseSecretRef(m)
		v, err := r.lookup(ctx, provider, ref)
		firstErr = err
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ResolveSlice resolves every element of values.
func (r *Resolver) ResolveSlice(ctx context.Context, values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for i, v := range values {
		resolved, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("resolve [%d]: %w", i, err)
		}
		out = append(out, resolved)
	}
	return out, nil
}

// ParseSecretRef splits a value that is exactly secretref:<provider>:<ref>.
// The ref may itself contain colons.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	rest, ok := strings.CutPrefix(value, refPrefix)
	if !ok {
		return "", "", false
	}
	provider, ref, ok = strings.Cut(rest, ":")
	if !ok || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) lookup(ctx context.Context, name, ref string) (string, error) {
	p, ok := r.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}
	v, err := p.Resolve(ctx, ref)
	switch {
	case err != nil:
		return "", err
	case v == "" && r.strict:
		return "", fmt.Errorf("%w: %s:%s", ErrEmptySecret, name, ref)
	}
	return v, nil
}
