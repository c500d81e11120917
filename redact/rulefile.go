package redact

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// RuleSet holds rules keyed by qualified type name, then field path.
type RuleSet map[string]map[string]Rule

// ruleFile is the YAML layout read by LoadRules:
//
//	rules:
//	  - type: example.com/app/users.User
//	    fields:
//	      Email: {first: 3, last: 2}
//	      Password: {}
//	      Billing.CardNumber: {last: 4, mask: "#"}
type ruleFile struct {
	Rules []struct {
		Type   string              `yaml:"type"`
		Fields map[string]ruleSpec `yaml:"fields"`
	} `yaml:"rules"`
}

type ruleSpec struct {
	Mask  string `yaml:"mask"`
	First int    `yaml:"first"`
	Last  int    `yaml:"last"`
}

// LoadRules parses a YAML rule file.
func LoadRules(r io.Reader) (RuleSet, error) {
	var file ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return RuleSet{}, nil
		}
		return nil, fmt.Errorf("redact: decode rule file: %w", err)
	}

	set := make(RuleSet, len(file.Rules))
	for i, entry := range file.Rules {
		typeName := strings.TrimSpace(entry.Type)
		if typeName == "" {
			return nil, fmt.Errorf("%w: entry %d has no type", ErrInvalidRule, i)
		}
		fields := set[typeName]
		if fields == nil {
			fields = make(map[string]Rule, len(entry.Fields))
			set[typeName] = fields
		}
		for path, raw := range entry.Fields {
			rule, err := raw.rule()
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidRule, typeName, path, err)
			}
			fields[path] = rule
		}
	}
	return set, nil
}

func (s ruleSpec) rule() (Rule, error) {
	if s.First < 0 || s.Last < 0 {
		return Rule{}, fmt.Errorf("first and last must be non-negative")
	}
	rule := Rule{MaskChar: DefaultMaskChar, ShowFirst: s.First, ShowLast: s.Last}
	if s.Mask != "" {
		if utf8.RuneCountInString(s.Mask) != 1 {
			return Rule{}, fmt.Errorf("mask %q must be a single character", s.Mask)
		}
		rule.MaskChar, _ = utf8.DecodeRuneInString(s.Mask)
	}
	return rule, nil
}
