// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Errors returned by the registry.
var (
	ErrSealed        = errors.New("profile registry is sealed")
	ErrDuplicate     = errors.New("profile already registered")
	ErrNoName        = errors.New("profile has no name")
	ErrNoDefault     = errors.New("default profile not registered")
	ErrUnknownMetric = errors.New("unknown metric key")
)

//go:embed profiles/*.yaml
var builtinFS embed.FS

// builtinOrder lists embedded profiles in registration order. The default
// profile comes first so company profiles can inherit from it.
var builtinOrder = []string{"default.yaml", "cipla.yaml", "lupin.yaml"}

// Registry maps company identifiers to profiles. It is populated during
// initialization, then sealed; a sealed registry is read-only and safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	profiles []*Profile
	byName   map[string]*Profile
	fallback *Profile
	sealed   bool
}

// NewRegistry returns an empty registry. The first registered definition
// must be the default profile.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Profile)}
}

// Builtin returns an unsealed registry holding the embedded default, Cipla
// and Lupin profiles.
func Builtin() (*Registry, error) {
	r := NewRegistry()
	for _, name := range builtinOrder {
		data, err := builtinFS.ReadFile("profiles/" + name)
		if err != nil {
			return nil, fmt.Errorf("reading builtin profile %s: %w", name, err)
		}
		def, err := ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("builtin profile %s: %w", name, err)
		}
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register compiles def and adds it. Company profiles inherit the default
// profile's rules, so the default must be registered first.
func (r *Registry) Register(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	name := strings.ToUpper(strings.TrimSpace(def.Name))
	if name == "" {
		return ErrNoName
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	if def.Default && r.fallback != nil {
		return fmt.Errorf("%w: second default profile %s", ErrDuplicate, name)
	}
	if !def.Default && r.fallback == nil {
		return fmt.Errorf("registering %s: %w", name, ErrNoDefault)
	}

	var base *Profile
	if !def.Default {
		base = r.fallback
	}
	p, err := compile(def, base)
	if err != nil {
		return err
	}

	r.byName[name] = p
	if p.isDefault {
		r.fallback = p
		return nil
	}
	r.profiles = append(r.profiles, p)
	return nil
}

// LoadDir registers every .yaml and .yml file in dir, in lexical order.
// A missing directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading profiles dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		def, err := ParseDefinition(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := r.Register(def); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// Seal makes the registry read-only. Further Register calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Default returns the generic fallback profile, or nil if none is registered.
func (r *Registry) Default() *Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Get returns the profile registered under name, case-insensitively.
func (r *Registry) Get(name string) (*Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[strings.ToUpper(strings.TrimSpace(name))]
	return p, ok
}

// Profiles returns the company profiles in registration order, followed by
// the default profile.
func (r *Registry) Profiles() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Profile, 0, len(r.profiles)+1)
	out = append(out, r.profiles...)
	if r.fallback != nil {
		out = append(out, r.fallback)
	}
	return out
}

// Resolve picks the profile for a transcript. A non-empty hint is matched
// against profile names and aliases first; otherwise the first depth
// paragraphs are scanned, in order, for a company-name pattern. When nothing
// matches, the default profile is returned. Resolve never fails once a
// default profile is registered.
func (r *Registry) Resolve(paragraphs []string, hint string, depth int) *Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p := r.matchHint(hint); p != nil {
		return p
	}

	if depth > len(paragraphs) || depth <= 0 {
		depth = len(paragraphs)
	}
	for _, para := range paragraphs[:depth] {
		for _, p := range r.profiles {
			if p.MentionedIn(para) {
				return p
			}
		}
	}
	return r.fallback
}

// matchHint returns the first company profile whose name or alias appears
// in hint as a whole token sequence.
func (r *Registry) matchHint(hint string) *Profile {
	h := tokenKey(hint)
	if h == "" {
		return nil
	}
	padded := " " + h + " "
	for _, p := range r.profiles {
		ids := append([]string{p.name}, p.aliases...)
		for _, id := range ids {
			k := tokenKey(id)
			if k == "" {
				continue
			}
			if h == k || strings.Contains(padded, " "+k+" ") {
				return p
			}
		}
	}
	return nil
}

// tokenKey lower-cases s and replaces every run of non-alphanumerics with a
// single space, so "Cipla_Q1-FY26" becomes "cipla q1 fy26".
func tokenKey(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
