//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Store indexes the result files in results/ into the SQLite database.
func Store() error {
	mg.Deps(Build)
	fmt.Println("[store] Indexing results/ into results/index/mathspan.db.")
	return sh.RunV(binPath, "store", "ingest", "--dir", "results")
}
