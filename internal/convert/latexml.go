// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/mathspan/internal/container"
)

// DefaultLaTeXMLImage is the LaTeXML image used when none is configured.
const DefaultLaTeXMLImage = "latexml/ar5ivist:latest"

// latexmlArgs make latexmlc read the source from stdin and write HTML5
// with presentation and content MathML to stdout.
var latexmlArgs = []string{"--format=html5", "--pmml", "--cmml", "--nodefaultresources", "--dest=-", "-"}

// LaTeXMLConverter converts LaTeX by piping it through a LaTeXML container
// image. It depends on a container.Runtime (docker or podman) injected at
// construction time.
type LaTeXMLConverter struct {
	runtime container.Runtime
	image   string
}

// NewLaTeXMLConverter creates a converter that runs image (default
// DefaultLaTeXMLImage) with rt. It verifies that the image exists locally
// before returning.
func NewLaTeXMLConverter(rt container.Runtime, image string) (*LaTeXMLConverter, error) {
	if image == "" {
		image = DefaultLaTeXMLImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("latexml image not available in %s: %w", rt.Name(), err)
	}
	return &LaTeXMLConverter{runtime: rt, image: image}, nil
}

// Convert reads the source at texPath, pipes it through the container and
// returns the resulting HTML.
func (l *LaTeXMLConverter) Convert(ctx context.Context, texPath string) (string, error) {
	f, err := os.Open(texPath)
	if err != nil {
		return "", fmt.Errorf("opening source %s: %w", texPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := l.runtime.Run(ctx, l.image, latexmlArgs, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with latexml: %w", texPath, err)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("latexml produced empty output for %s", texPath)
	}

	return out.String(), nil
}
