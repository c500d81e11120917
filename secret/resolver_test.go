package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type stubProvider struct {
	name    string
	values  map[string]string
	resolve func(ref string) (string, error)
	closed  bool
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.resolve != nil {
		return s.resolve(ref)
	}
	if s.values == nil {
		return "", nil
	}
	return s.values[ref], nil
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		ok       bool
	}{
		{in: "secretref:stub:alpha", provider: "stub", ref: "alpha", ok: true},
		{in: "secretref:file:/run/secrets/a:b", provider: "file", ref: "/run/secrets/a:b", ok: true},
		{in: "not-a-secretref"},
		{in: "secretref:stub"},
		{in: "secretref::alpha"},
		{in: "secretref:stub:"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			provider, ref, ok := ParseSecretRef(tt.in)
			if ok != tt.ok || provider != tt.provider || ref != tt.ref {
				t.Errorf("ParseSecretRef(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.in, provider, ref, ok, tt.provider, tt.ref, tt.ok)
			}
		})
	}
}

func TestResolver_ResolvesFullSecretRef(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	got, err := r.ResolveValue(context.Background(), "secretref:stub:alpha")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "one" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "one")
	}
}

func TestResolver_ResolvesInlineSecretRefs(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"a": "one", "b": "two"}})

	got, err := r.ResolveValue(context.Background(), "x=secretref:stub:a y=secretref:stub:b")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "x=one y=two" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "x=one y=two")
	}
}

func TestResolver_EnvExpandedBeforeRefs(t *testing.T) {
	t.Setenv("KEY_NAME", "alpha")
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	got, err := r.ResolveValue(context.Background(), "secretref:stub:${KEY_NAME}")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "one" {
		t.Errorf("ResolveValue() = %q, want %q", got, "one")
	}
}

func TestResolver_Errors(t *testing.T) {
	boom := errors.New("explode")
	r := NewResolver(true, &stubProvider{name: "stub", resolve: func(ref string) (string, error) {
		switch ref {
		case "boom":
			return "", boom
		case "empty":
			return "", nil
		}
		return "ok", nil
	}})

	tests := []struct {
		name  string
		value string
		want  error
	}{
		{name: "provider error", value: "secretref:stub:boom", want: boom},
		{name: "strict empty", value: "secretref:stub:empty", want: ErrEmptySecret},
		{name: "unknown provider", value: "secretref:vault:x", want: ErrProviderNotRegistered},
		{name: "missing env", value: "${CALLTRACE_TEST_UNSET_VAR}", want: ErrMissingEnv},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolveValue(context.Background(), tt.value)
			if !errors.Is(err, tt.want) {
				t.Errorf("ResolveValue() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResolver_NonStrictAllowsEmpty(t *testing.T) {
	r := NewResolver(false, &stubProvider{name: "stub"})

	got, err := r.ResolveValue(context.Background(), "secretref:stub:anything")
	if err != nil || got != "" {
		t.Errorf("ResolveValue() = (%q, %v), want empty value", got, err)
	}
}

func TestResolver_NilOnlyExpandsEnv(t *testing.T) {
	t.Setenv("X", "y")
	var r *Resolver

	got, err := r.ResolveValue(context.Background(), "${X} secretref:stub:a")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "y secretref:stub:a" {
		t.Errorf("ResolveValue() = %q", got)
	}
}

func TestResolver_ResolveSlice(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	slice, err := r.ResolveSlice(context.Background(), []string{"a", "secretref:stub:alpha"})
	if err != nil {
		t.Fatalf("ResolveSlice() error = %v", err)
	}
	if slice[0] != "a" || slice[1] != "one" {
		t.Fatalf("unexpected slice: %#v", slice)
	}

	_, err = r.ResolveSlice(context.Background(), []string{"a", "secretref:nope:x"})
	if !errors.Is(err, ErrProviderNotRegistered) || !strings.Contains(err.Error(), "[1]") {
		t.Errorf("ResolveSlice() error = %v, want index and ErrProviderNotRegistered", err)
	}
}

func TestResolver_Close(t *testing.T) {
	p := &stubProvider{name: "stub"}
	r := NewResolver(true, p)
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !p.closed {
		t.Error("provider was not closed")
	}
}

func TestOpen_Builtins(t *testing.T) {
	t.Setenv("CALLTRACE_TEST_JWT_KEY", "s3cret")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "key"), []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := Open(nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	got, err := r.ResolveValue(context.Background(), "secretref:env:CALLTRACE_TEST_JWT_KEY")
	if err != nil || got != "s3cret" {
		t.Errorf("env ResolveValue() = (%q, %v)", got, err)
	}

	got, err = r.ResolveValue(context.Background(), "secretref:file:"+filepath.Join(dir, "key"))
	if err != nil || got != "from-file" {
		t.Errorf("file ResolveValue() = (%q, %v)", got, err)
	}

	_, err = r.ResolveValue(context.Background(), "secretref:env:CALLTRACE_TEST_UNSET_VAR")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unset env error = %v, want ErrNotFound", err)
	}
}

func TestOpen_UnknownName(t *testing.T) {
	if _, err := Open(NewRegistry(), "vault"); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("Open() error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestFileProvider_RelativeToDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "jwt"), []byte("k\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := NewFileProvider(dir)

	got, err := p.Resolve(context.Background(), "jwt")
	if err != nil || got != "k" {
		t.Errorf("Resolve() = (%q, %v), want %q", got, err, "k")
	}
	if _, err := p.Resolve(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}
