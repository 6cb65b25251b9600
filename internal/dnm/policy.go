// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dnm

import (
	"fmt"

	"github.com/pdiddy/mathspan/internal/doc"
)

// Linearizer renders a subtree as text for FunctionNormalize policies.
type Linearizer func(t *doc.Tree, id doc.NodeID) string

// PolicyKind enumerates the closed set of tag policies.
type PolicyKind uint8

const (
	policyNone PolicyKind = iota
	// PolicySkip drops the subtree entirely.
	PolicySkip
	// PolicyNormalize replaces the subtree by a fixed label.
	PolicyNormalize
	// PolicyFunction replaces the subtree by a Linearizer's output.
	PolicyFunction
)

func (k PolicyKind) String() string {
	switch k {
	case PolicySkip:
		return "skip"
	case PolicyNormalize:
		return "normalize"
	case PolicyFunction:
		return "function"
	default:
		return "none"
	}
}

// Policy governs how a subtree contributes to DNM text. Construct it with
// Skip, Normalize or FunctionNormalize; the zero Policy means "no policy".
type Policy struct {
	kind  PolicyKind
	label string
	fn    Linearizer
}

// Skip contributes nothing and records no back-mapping.
func Skip() Policy { return Policy{kind: PolicySkip} }

// Normalize contributes exactly label, mapped to the policy-bearing node.
func Normalize(label string) Policy { return Policy{kind: PolicyNormalize, label: label} }

// FunctionNormalize contributes fn's output, mapped to the policy-bearing
// node. A nil fn behaves like Normalize("").
func FunctionNormalize(fn Linearizer) Policy { return Policy{kind: PolicyFunction, fn: fn} }

// Kind returns the policy variant.
func (p Policy) Kind() PolicyKind { return p.kind }

// Label returns the Normalize label ("" for other variants).
func (p Policy) Label() string { return p.label }

// IsZero reports whether p is the absent policy.
func (p Policy) IsZero() bool { return p.kind == policyNone }

func (p Policy) String() string {
	if p.kind == PolicyNormalize {
		return fmt.Sprintf("normalize(%q)", p.label)
	}
	return p.kind.String()
}

// emit returns the text a unit policy contributes for id.
func (p Policy) emit(t *doc.Tree, id doc.NodeID) string {
	switch p.kind {
	case PolicyNormalize:
		return p.label
	case PolicyFunction:
		if p.fn == nil {
			return ""
		}
		return p.fn(t, id)
	default:
		return ""
	}
}
