// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dnm

import (
	"fmt"
	"maps"
	"sort"

	"github.com/pdiddy/mathspan/internal/doc"
	"github.com/pdiddy/mathspan/pkg/types"
)

// Config controls how a document tree is linearized. Build copies the
// policy maps, so a DNM never observes later changes to a Config.
type Config struct {
	// NamePolicies maps tag names to policies and is consulted first.
	NamePolicies map[string]Policy
	// ClassPolicies maps class tokens to policies.
	ClassPolicies map[string]Policy

	NormalizeWhitespace bool
	NormalizeUnicode    bool
	// WrapTokens surrounds Normalize/FunctionNormalize output with spaces.
	WrapTokens bool
	// BackMapping enables offset-to-node lookups.
	BackMapping bool
}

// DefaultConfig returns a configuration with no policies, whitespace
// normalization and back-mapping enabled.
func DefaultConfig() Config {
	return Config{
		NamePolicies:        map[string]Policy{},
		ClassPolicies:       map[string]Policy{},
		NormalizeWhitespace: true,
		BackMapping:         true,
	}
}

func (c Config) clone() Config {
	out := c
	out.NamePolicies = maps.Clone(c.NamePolicies)
	out.ClassPolicies = maps.Clone(c.ClassPolicies)
	return out
}

// PolicyFor resolves the policy of an element. The tag-name map wins
// outright; otherwise the first class token (in attribute order) with an
// entry applies. Text leaves never carry a policy.
func (c Config) PolicyFor(t *doc.Tree, id doc.NodeID) (Policy, bool) {
	if t.IsText(id) {
		return Policy{}, false
	}
	if p, ok := c.NamePolicies[t.Tag(id)]; ok && !p.IsZero() {
		return p, true
	}
	if len(c.ClassPolicies) == 0 {
		return Policy{}, false
	}
	for _, class := range t.Classes(id) {
		if p, ok := c.ClassPolicies[class]; ok && !p.IsZero() {
			return p, true
		}
	}
	return Policy{}, false
}

// FromSpec converts a serialized configuration. Function policies are
// resolved by name against linearizers.
func FromSpec(spec types.DNMConfig, linearizers map[string]Linearizer) (Config, error) {
	cfg := Config{
		NamePolicies:        make(map[string]Policy, len(spec.NamePolicies)),
		ClassPolicies:       make(map[string]Policy, len(spec.ClassPolicies)),
		NormalizeWhitespace: spec.NormalizeWhitespace,
		NormalizeUnicode:    spec.NormalizeUnicode,
		WrapTokens:          spec.WrapTokens,
		BackMapping:         spec.BackMapping,
	}
	for _, key := range sortedKeys(spec.NamePolicies) {
		p, err := policyFromSpec(spec.NamePolicies[key], linearizers)
		if err != nil {
			return Config{}, fmt.Errorf("name policy %q: %w", key, err)
		}
		cfg.NamePolicies[key] = p
	}
	for _, key := range sortedKeys(spec.ClassPolicies) {
		p, err := policyFromSpec(spec.ClassPolicies[key], linearizers)
		if err != nil {
			return Config{}, fmt.Errorf("class policy %q: %w", key, err)
		}
		cfg.ClassPolicies[key] = p
	}
	return cfg, nil
}

func policyFromSpec(s types.PolicySpec, linearizers map[string]Linearizer) (Policy, error) {
	set := 0
	if s.Skip {
		set++
	}
	if s.Normalize != "" {
		set++
	}
	if s.Function != "" {
		set++
	}
	if set != 1 {
		return Policy{}, fmt.Errorf("exactly one of skip, normalize, function must be set")
	}

	switch {
	case s.Skip:
		return Skip(), nil
	case s.Normalize != "":
		return Normalize(s.Normalize), nil
	default:
		fn, ok := linearizers[s.Function]
		if !ok {
			return Policy{}, fmt.Errorf("unknown linearizer %q", s.Function)
		}
		return FunctionNormalize(fn), nil
	}
}

func sortedKeys(m map[string]types.PolicySpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
