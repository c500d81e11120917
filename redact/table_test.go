package redact

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

type account struct {
	Owner    string
	Email    string `log:"sensitive,first=3,last=2"`
	Password string `log:"sensitive"`
	Note     string `log:"plain"`
}

func TestRegistry_DerivesFromTags(t *testing.T) {
	reg := NewRegistry()
	table := reg.Table(reflect.TypeFor[account]())

	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (paths %v)", table.Len(), table.Paths())
	}
	rule, ok := table.Rule("Email")
	if !ok || rule.ShowFirst != 3 || rule.ShowLast != 2 {
		t.Errorf("Rule(Email) = %+v, %v", rule, ok)
	}
	if _, ok := table.Rule("Note"); ok {
		t.Error("Rule(Note) should not exist")
	}
}

func TestRegistry_PointerTypeSharesTable(t *testing.T) {
	reg := NewRegistry()
	a := reg.Table(reflect.TypeFor[account]())
	b := reg.Table(reflect.TypeFor[*account]())
	if a != b {
		t.Error("pointer and value types should share one table")
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Table(reflect.TypeFor[account]())

	reg.Register(TableOf[account](map[string]Rule{"Owner": {}}))

	table := reg.Table(reflect.TypeFor[account]())
	if got := table.Paths(); !reflect.DeepEqual(got, []string{"Owner"}) {
		t.Errorf("Paths() = %v, want [Owner]", got)
	}
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	tables := make([]*Table, 32)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i] = reg.Table(reflect.TypeFor[account]())
		}(i)
	}
	wg.Wait()

	for i, table := range tables {
		if table != tables[0] {
			t.Fatalf("goroutine %d got a different table", i)
		}
	}
}

func TestRegistry_UnnamedTypesStayDistinct(t *testing.T) {
	reg := NewRegistry()
	a := reg.Table(reflect.TypeOf(struct {
		A string `log:"sensitive"`
	}{}))
	b := reg.Table(reflect.TypeOf(struct {
		B string `log:"sensitive"`
	}{}))
	if _, ok := a.Rule("A"); !ok {
		t.Error("first table should have rule A")
	}
	if _, ok := b.Rule("B"); !ok {
		t.Error("second table should have rule B")
	}
}

func TestLoadRules(t *testing.T) {
	src := `
rules:
  - type: github.com/jonwraymond/calltrace/redact.account
    fields:
      Owner: {first: 1}
      Email: {first: 0, last: 4, mask: "#"}
`
	set, err := LoadRules(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}

	reg := NewRegistry(WithRuleSet(set))
	table := reg.Table(reflect.TypeFor[account]())

	owner, ok := table.Rule("Owner")
	if !ok || owner.ShowFirst != 1 {
		t.Errorf("Rule(Owner) = %+v, %v", owner, ok)
	}
	email, _ := table.Rule("Email")
	if email.MaskChar != '#' || email.ShowLast != 4 || email.ShowFirst != 0 {
		t.Errorf("rule file should override tag for Email, got %+v", email)
	}
	if _, ok := table.Rule("Password"); !ok {
		t.Error("tag rule for Password should survive the merge")
	}
}

func TestLoadRules_Empty(t *testing.T) {
	set, err := LoadRules(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(set) != 0 {
		t.Errorf("len(set) = %d, want 0", len(set))
	}
}

func TestLoadRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing type", "rules:\n  - fields: {A: {}}\n"},
		{"negative", "rules:\n  - type: x.T\n    fields: {A: {first: -1}}\n"},
		{"wide mask", "rules:\n  - type: x.T\n    fields: {A: {mask: \"ab\"}}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(strings.NewReader(tt.src))
			if !errors.Is(err, ErrInvalidRule) {
				t.Errorf("LoadRules() error = %v, want ErrInvalidRule", err)
			}
		})
	}
}

func TestLoadRules_UnknownField(t *testing.T) {
	_, err := LoadRules(strings.NewReader("rulez: []\n"))
	if err == nil {
		t.Error("LoadRules() should reject unknown keys")
	}
}

func TestQualifiedName(t *testing.T) {
	got := QualifiedName(reflect.TypeFor[account]())
	want := "github.com/jonwraymond/calltrace/redact.account"
	if got != want {
		t.Errorf("QualifiedName() = %q, want %q", got, want)
	}
	if got := QualifiedName(reflect.TypeFor[[]int]()); got != "[]int" {
		t.Errorf("QualifiedName([]int) = %q", got)
	}
}
