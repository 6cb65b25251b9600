//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Extract locates declared identifiers in every HTML document under
// documents/ and writes results to results/.
func Extract() error {
	mg.Deps(Build)
	fmt.Println("[extract] Matching declaration patterns in documents/.")
	return sh.RunV(binPath, "extract", "documents",
		"--patterns", "patterns/declaration.xml",
		"--out", "results")
}
