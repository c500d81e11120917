package secret

import (
	"errors"
	"slices"
	"testing"
)

func stubFactory(name string) ProviderFactory {
	return func(map[string]any) (Provider, error) { return &stubProvider{name: name}, nil }
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(" vault ", stubFactory("vault")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := reg.Create("vault", map[string]any{"addr": "https://vault.internal"})
	if err != nil || p.Name() != "vault" {
		t.Fatalf("Create() = (%v, %v)", p, err)
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate", reg.Register("vault", stubFactory("vault")), ErrProviderExists},
		{"blank name", reg.Register("  ", stubFactory("x")), ErrInvalidProvider},
		{"nil factory", reg.Register("aws", nil), ErrInvalidProvider},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, tt.err, tt.want)
		}
	}

	if _, err := reg.Create("aws", nil); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("Create(aws) error = %v, want ErrProviderNotRegistered", err)
	}
	if got := reg.Names(); !slices.Equal(got, []string{"vault"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	if got := DefaultRegistry.Names(); !slices.Equal(got, []string{"env", "file"}) {
		t.Errorf("Names() = %v, want [env file]", got)
	}
}
