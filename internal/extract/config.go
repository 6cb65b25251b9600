// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"

	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/doc"
	"github.com/pdiddy/mathspan/internal/mathml"
	"github.com/pdiddy/mathspan/pkg/types"
)

// MathFormulaLabel replaces formulas in the text handed to the parser.
const MathFormulaLabel = "MathFormula"

// CitationLabel replaces citations in both configurations.
const CitationLabel = "CitationElement"

// Linearizers are the named functions available to "function" policies
// in configuration files.
var Linearizers = map[string]dnm.Linearizer{
	"mathml": mathml.Linearize,
	"text":   func(t *doc.Tree, id doc.NodeID) string { return t.TextContent(id) },
}

// SentenceDNMConfig is the configuration of the DNM that is split into
// sentences and parsed. Every formula becomes a single MathFormula token
// whose back-mapping points at the math element.
func SentenceDNMConfig() dnm.Config {
	formula := dnm.Normalize(MathFormulaLabel)
	return dnm.Config{
		NamePolicies: map[string]dnm.Policy{
			"math":  formula,
			"cite":  dnm.Normalize(CitationLabel),
			"table": dnm.Skip(),
			"head":  dnm.Skip(),
		},
		ClassPolicies: map[string]dnm.Policy{
			"ltx_equation":      formula,
			"ltx_equationgroup": formula,
			"ltx_note_mark":     dnm.Skip(),
			"ltx_note_outer":    dnm.Skip(),
			"ltx_bibliography":  dnm.Skip(),
		},
		NormalizeWhitespace: true,
		NormalizeUnicode:    true,
		WrapTokens:          true,
		BackMapping:         true,
	}
}

// AlternateDNMConfig is the print-oriented configuration used to render
// located nodes: formulas are linearized as MathML instead of normalized.
func AlternateDNMConfig() dnm.Config {
	formula := dnm.FunctionNormalize(mathml.Linearize)
	return dnm.Config{
		NamePolicies: map[string]dnm.Policy{
			"math":  formula,
			"cite":  dnm.Normalize(CitationLabel),
			"table": dnm.Skip(),
			"head":  dnm.Skip(),
		},
		ClassPolicies: map[string]dnm.Policy{
			"ltx_equation":      formula,
			"ltx_equationgroup": formula,
			"ltx_note_mark":     dnm.Skip(),
			"ltx_note_outer":    dnm.Skip(),
			"ltx_bibliography":  dnm.Skip(),
		},
		NormalizeWhitespace: true,
		BackMapping:         true,
	}
}

// dnmConfig returns def unless spec overrides it.
func dnmConfig(spec *types.DNMConfig, def dnm.Config) (dnm.Config, error) {
	if spec == nil {
		return def, nil
	}
	cfg, err := dnm.FromSpec(*spec, Linearizers)
	if err != nil {
		return dnm.Config{}, fmt.Errorf("dnm config: %w", err)
	}
	return cfg, nil
}
