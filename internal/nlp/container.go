// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package nlp

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/mathspan/internal/container"
	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/sentence"
)

// Container runs a parser image once per sentence. The image reads the
// sentence on stdin and writes CoreNLP-compatible JSON to stdout.
type Container struct {
	runtime container.Runtime
	image   string
}

// NewContainer checks that image exists in rt and returns the backend.
func NewContainer(rt container.Runtime, image string) (*Container, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("parser image not available in %s: %w", rt.Name(), err)
	}
	return &Container{runtime: rt, image: image}, nil
}

// Parse implements Parser.
func (c *Container) Parse(ctx context.Context, r dnm.Range) (*sentence.Sentence, error) {
	return parse(ctx, c, r)
}

// Annotate pipes text through the parser image.
func (c *Container) Annotate(ctx context.Context, text string) (sentence.Annotation, error) {
	var out bytes.Buffer
	if err := c.runtime.Run(ctx, c.image, nil, strings.NewReader(text), &out); err != nil {
		return sentence.Annotation{}, fmt.Errorf("parsing with %s: %w", c.image, err)
	}
	if out.Len() == 0 {
		return sentence.Annotation{}, fmt.Errorf("parser image %s produced empty output", c.image)
	}
	return decodeCoreNLP(&out, text)
}
