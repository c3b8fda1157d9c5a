//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert converts every PDF under transcripts/ to text.
func Convert() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "convert", "--batch")
}

// Extract extracts records from every transcript under transcripts/.
func Extract() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "extract", "--batch")
}

// Index loads extracted records into the record store.
func Index() error {
	mg.Deps(Extract)
	return sh.RunV(binPath(), "records", "store")
}

// Export writes the record store to an Excel workbook.
func Export() error {
	mg.Deps(Index)
	out := "records/export/records.xlsx"
	if err := sh.RunV(binPath(), "records", "export", "--out", out); err != nil {
		return err
	}
	fmt.Println("[export] wrote", out)
	return nil
}
