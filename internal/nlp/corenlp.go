// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/httputil"
	"github.com/pdiddy/mathspan/internal/sentence"
	"github.com/pdiddy/mathspan/pkg/types"
)

// coreNLPProperties asks for one sentence per request with lemmas and a
// constituency parse.
const coreNLPProperties = `{"annotators":"tokenize,ssplit,pos,lemma,parse","outputFormat":"json","ssplit.isOneSentence":"true","tokenize.options":"invertible=true"}`

// CoreNLP talks to a Stanford CoreNLP server over HTTP.
type CoreNLP struct {
	baseURL    string
	userAgent  string
	maxRetries int
	username   string
	password   string
	client     *http.Client
	log        zerolog.Logger
}

// NewCoreNLP creates a client for the server at cfg.URL.
func NewCoreNLP(cfg types.ParserConfig, log zerolog.Logger) *CoreNLP {
	return &CoreNLP{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		username:   cfg.Username,
		password:   cfg.Password,
		client:     &http.Client{Timeout: cfg.Timeout},
		log:        log.With().Str("parser", "corenlp").Logger(),
	}
}

// Parse implements Parser.
func (c *CoreNLP) Parse(ctx context.Context, r dnm.Range) (*sentence.Sentence, error) {
	return parse(ctx, c, r)
}

// Annotate posts text to the server and converts the JSON response.
func (c *CoreNLP) Annotate(ctx context.Context, text string) (sentence.Annotation, error) {
	u := c.baseURL + "/?" + url.Values{"properties": {coreNLPProperties}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(text))
	if err != nil {
		return sentence.Annotation{}, fmt.Errorf("building corenlp request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := httputil.DoWithRetry(c.log.WithContext(ctx), c.client, req, c.maxRetries)
	if err != nil {
		return sentence.Annotation{}, fmt.Errorf("corenlp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return sentence.Annotation{}, fmt.Errorf("corenlp returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.log.Debug().Int("bytes", len(text)).Msg("sentence annotated")
	return decodeCoreNLP(resp.Body, text)
}

type coreNLPDoc struct {
	Sentences []struct {
		Parse  string `json:"parse"`
		Tokens []struct {
			Word  string `json:"word"`
			Lemma string `json:"lemma"`
			POS   string `json:"pos"`
			Begin int    `json:"characterOffsetBegin"`
			End   int    `json:"characterOffsetEnd"`
		} `json:"tokens"`
	} `json:"sentences"`
}

// decodeCoreNLP converts CoreNLP JSON for text into an annotation. CoreNLP
// reports offsets in UTF-16 code units; they are converted to byte offsets.
// Several sentences are joined under one ROOT.
func decodeCoreNLP(r io.Reader, text string) (sentence.Annotation, error) {
	var doc coreNLPDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return sentence.Annotation{}, fmt.Errorf("decoding corenlp response: %w", err)
	}

	offsets := utf16Offsets(text)
	toByte := func(u int) (int, error) {
		if u < 0 || u >= len(offsets) {
			return 0, fmt.Errorf("offset %d outside sentence of %d UTF-16 units", u, len(offsets)-1)
		}
		return offsets[u], nil
	}

	var ann sentence.Annotation
	var trees []string
	for _, s := range doc.Sentences {
		for _, tok := range s.Tokens {
			begin, err := toByte(tok.Begin)
			if err != nil {
				return sentence.Annotation{}, err
			}
			end, err := toByte(tok.End)
			if err != nil {
				return sentence.Annotation{}, err
			}
			ann.Tokens = append(ann.Tokens, sentence.AnnotatedToken{
				Text:  tok.Word,
				Lemma: tok.Lemma,
				POS:   tok.POS,
				Begin: begin,
				End:   end,
			})
		}
		if p := strings.TrimSpace(s.Parse); p != "" {
			trees = append(trees, p)
		}
	}

	switch {
	case len(trees) == 0:
	case len(trees) == len(doc.Sentences) && len(trees) == 1:
		ann.Tree = trees[0]
	case len(trees) == len(doc.Sentences):
		ann.Tree = "(ROOT " + strings.Join(trees, " ") + ")"
	}
	return ann, nil
}

// utf16Offsets maps every UTF-16 code unit position of s (plus the end) to
// a byte offset.
func utf16Offsets(s string) []int {
	out := make([]int, 0, len(s)+1)
	for i, r := range s {
		out = append(out, i)
		if r >= 0x10000 {
			out = append(out, i)
		}
	}
	return append(out, len(s))
}
