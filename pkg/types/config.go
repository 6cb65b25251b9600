// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// PolicySpec is the serializable form of a DNM tag policy. Exactly one
// field must be set.
type PolicySpec struct {
	// Skip drops the subtree.
	Skip bool `json:"skip,omitempty" yaml:"skip,omitempty" mapstructure:"skip"`

	// Normalize replaces the subtree with this label (e.g. "MathFormula").
	Normalize string `json:"normalize,omitempty" yaml:"normalize,omitempty" mapstructure:"normalize"`

	// Function names a registered linearizer ("mathml" or "text").
	Function string `json:"function,omitempty" yaml:"function,omitempty" mapstructure:"function"`
}

// DNMConfig is the serializable form of a DNM configuration.
type DNMConfig struct {
	// NamePolicies maps element tag names to policies. Consulted first.
	NamePolicies map[string]PolicySpec `json:"name_policies" yaml:"name_policies" mapstructure:"name_policies"`

	// ClassPolicies maps class attribute tokens to policies.
	ClassPolicies map[string]PolicySpec `json:"class_policies" yaml:"class_policies" mapstructure:"class_policies"`

	NormalizeWhitespace bool `json:"normalize_whitespace" yaml:"normalize_whitespace" mapstructure:"normalize_whitespace"`
	NormalizeUnicode    bool `json:"normalize_unicode" yaml:"normalize_unicode" mapstructure:"normalize_unicode"`
	WrapTokens          bool `json:"wrap_tokens" yaml:"wrap_tokens" mapstructure:"wrap_tokens"`
	BackMapping         bool `json:"back_mapping" yaml:"back_mapping" mapstructure:"back_mapping"`
}

// ParserBackend identifies the linguistic parser implementation.
type ParserBackend string

const (
	ParserCoreNLP   ParserBackend = "corenlp"
	ParserContainer ParserBackend = "container"
	ParserPlain     ParserBackend = "plain"
)

// ParserConfig holds settings for the linguistic parse step.
type ParserConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects corenlp, container, or plain.
	Backend ParserBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// URL is the CoreNLP server address (e.g. "http://localhost:9000").
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Image is the container image used by the container backend.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// MaxRetries bounds retries on 429/503 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Username and Password authenticate against a CoreNLP server started
	// with -username/-password. Usually loaded from .secrets/.
	Username string `json:"-" yaml:"username,omitempty" mapstructure:"username"`
	Password string `json:"-" yaml:"password,omitempty" mapstructure:"password"`
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// PatternFile is the XML or YAML pattern file.
	PatternFile string `json:"pattern_file" yaml:"pattern_file" mapstructure:"pattern_file"`

	// Pattern is the pattern name to match (default "declaration").
	Pattern string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`

	// Capture is the math marker name emitted as a location (default "identifier").
	Capture string `json:"capture" yaml:"capture" mapstructure:"capture"`

	// OutputDir receives <id>-declarations.yaml files. Empty disables writing.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Workers bounds the number of documents processed concurrently (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// Force re-extracts documents whose results are newer than the source.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`

	// SentenceDNM overrides the configuration used to build the DNM fed
	// to the linguistic parser.
	SentenceDNM *DNMConfig `json:"sentence_dnm,omitempty" yaml:"sentence_dnm,omitempty" mapstructure:"sentence_dnm"`

	// AlternateDNM overrides the print-oriented configuration used to render
	// located math markers.
	AlternateDNM *DNMConfig `json:"alternate_dnm,omitempty" yaml:"alternate_dnm,omitempty" mapstructure:"alternate_dnm"`
}

// StoreConfig holds settings for the results store.
type StoreConfig struct {
	// Dir is the base directory for the store (contains index/).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ConversionConfig holds settings for the LaTeX-to-HTML conversion stage.
type ConversionConfig struct {
	// Image is the LaTeXML container image.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// OutputDir receives converted .html documents.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
	JSON  bool   `json:"json" yaml:"json" mapstructure:"json"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Parser     ParserConfig     `json:"parser" yaml:"parser" mapstructure:"parser"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultPipelineConfig returns the configuration used when no config file
// or flag overrides a setting.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Extraction: ExtractionConfig{
			PatternFile: "patterns/declaration.xml",
			Pattern:     "declaration",
			Capture:     "identifier",
			OutputDir:   "results",
			Workers:     1,
		},
		Parser: ParserConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "mathspan/0.1",
			},
			Backend:    ParserCoreNLP,
			URL:        "http://localhost:9000",
			Image:      "corenlp-json:latest",
			MaxRetries: 5,
		},
		Store: StoreConfig{
			Dir:        "results",
			MaxResults: 20,
		},
		Conversion: ConversionConfig{
			Image:     "latexml/ar5ivist:latest",
			OutputDir: "documents",
		},
		Log: LogConfig{Level: "info"},
	}
}
