//go:build mage

// Package main contains Mage build targets for earnings-extractor developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the pipeline expects.
var projectDirs = []string{
	"transcripts",
	"profiles",
	"records/extracted",
	"records/index",
	"records/export",
}

// Init creates the project directory structure for the pipeline.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "earnings-extractor"
	cmdPkg  = "./cmd/earnings-extractor"

	// buildTags enables the FTS5 module in go-sqlite3.
	buildTags = "sqlite_fts5"
)

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := binPath()
	if err := sh.RunV("go", "build", "-tags", buildTags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test builds the binary and runs the unit tests with full-text search
// enabled.
func Test() error {
	mg.Deps(Build)
	return sh.RunV("go", "test", "-tags", buildTags, "./...")
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "-tags", buildTags, "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// Stats prints non-blank Go lines per package (production and test) and
// the number of patterns each built-in company profile declares.
func Stats() error {
	counts, err := countPackageLines(".")
	if err != nil {
		return err
	}
	pkgs := make([]string, 0, len(counts))
	for pkg := range counts {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tPROD\tTEST")
	var prod, test int
	for _, pkg := range pkgs {
		c := counts[pkg]
		fmt.Fprintf(tw, "%s\t%d\t%d\n", pkg, c.prod, c.test)
		prod += c.prod
		test += c.test
	}
	fmt.Fprintf(tw, "total\t%d\t%d\n", prod, test)
	if err := tw.Flush(); err != nil {
		return err
	}

	profiles, err := filepath.Glob(filepath.Join(profilesDir, "*.yaml"))
	if err != nil {
		return err
	}
	fmt.Println()
	for _, path := range profiles {
		n, err := countPatterns(path)
		if err != nil {
			return err
		}
		fmt.Printf("profile %-12s %d patterns\n", strings.TrimSuffix(filepath.Base(path), ".yaml"), n)
	}
	return nil
}

// profilesDir holds the built-in company profiles.
const profilesDir = "internal/profile/profiles"

type lineCount struct {
	prod, test int
}

// countPackageLines counts non-blank lines of Go files, keyed by package
// directory.
func countPackageLines(root string) (map[string]lineCount, error) {
	counts := make(map[string]lineCount)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return skipDir(path, d.Name())
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countLines(path, func(line string) bool { return line != "" })
		if err != nil {
			return err
		}
		pkg := filepath.ToSlash(filepath.Dir(path))
		c := counts[pkg]
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		counts[pkg] = c
		return nil
	})
	return counts, err
}

// countPatterns counts the regular expressions listed in a profile YAML
// file: sequence items written as quoted strings.
func countPatterns(path string) (int, error) {
	return countLines(path, func(line string) bool {
		return strings.HasPrefix(line, "- '") || strings.HasPrefix(line, `- "`)
	})
}

// countLines counts the trimmed lines of path accepted by keep.
func countLines(path string, keep func(line string) bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if keep(strings.TrimSpace(sc.Text())) {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return n, nil
}

// skipDir skips hidden directories and underscore-prefixed directories,
// which the go tool ignores too.
func skipDir(path, name string) error {
	if path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
		return filepath.SkipDir
	}
	return nil
}
