//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert turns every LaTeX source under sources/ into HTML in documents/.
func Convert() error {
	mg.Deps(Build)
	sources, err := filepath.Glob(filepath.Join("sources", "*.tex"))
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("[convert] No sources/*.tex files found.")
		return nil
	}
	fmt.Printf("[convert] Converting %d sources with LaTeXML.\n", len(sources))
	args := append([]string{"convert", "--out", "documents"}, sources...)
	return sh.RunV(binPath, args...)
}
