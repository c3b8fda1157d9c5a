// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/earnings-extractor/internal/convert"
	"github.com/pdiddy/earnings-extractor/internal/extract"
	"github.com/pdiddy/earnings-extractor/internal/profile"
	"github.com/pdiddy/earnings-extractor/internal/records"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// envKeyReplacer maps nested config keys to environment variable names,
// e.g. extraction.input_dir -> EARNINGS_EXTRACTOR_EXTRACTION_INPUT_DIR.
var envKeyReplacer = strings.NewReplacer(".", "_")

func init() {
	d := types.PipelineConfig{}.Defaults()
	viper.SetDefault("debug", false)
	viper.SetDefault("extraction.engine.header_depth", d.Extraction.Engine.HeaderDepth)
	viper.SetDefault("extraction.engine.resolve_depth", d.Extraction.Engine.ResolveDepth)
	viper.SetDefault("extraction.engine.roster_budget", d.Extraction.Engine.RosterBudget)
	viper.SetDefault("extraction.engine.filename_fallback", false)
	viper.SetDefault("extraction.input_dir", d.Extraction.InputDir)
	viper.SetDefault("extraction.output_dir", d.Extraction.OutputDir)
	viper.SetDefault("extraction.profiles_dir", "")
	viper.SetDefault("extraction.format", string(d.Extraction.Format))
	viper.SetDefault("extraction.workers", d.Extraction.Workers)
	viper.SetDefault("extraction.doc_timeout", d.Extraction.DocTimeout)
	viper.SetDefault("extraction.force", false)
	viper.SetDefault("conversion.backend", string(d.Conversion.Backend))
	viper.SetDefault("conversion.pdftotext_path", "")
	viper.SetDefault("store.db_path", d.Store.DBPath)
	viper.SetDefault("store.max_results", d.Store.MaxResults)
	viper.SetDefault("watch.debounce", d.Watch.Debounce)
}

// bindFlags binds the named flags of cmd to config keys. Bindings are made
// when the command runs so that commands sharing a key do not overwrite
// each other's flags.
func bindFlags(cmd *cobra.Command, keyFlags map[string]string) error {
	for key, flag := range keyFlags {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding flag --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig binds keyFlags for cmd and reads the merged configuration
// (defaults, file, environment, flags).
func loadConfig(cmd *cobra.Command, keyFlags map[string]string) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := bindFlags(cmd, keyFlags); err != nil {
		return cfg, err
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg = cfg.Defaults()
	switch cfg.Extraction.Format {
	case types.OutputJSON, types.OutputYAML:
	default:
		return cfg, fmt.Errorf("unsupported output format %q: use json or yaml", cfg.Extraction.Format)
	}
	return cfg, nil
}

// newRegistry returns the built-in profiles plus any in cfg.ProfilesDir.
func newRegistry(cfg types.ExtractionConfig) (*profile.Registry, error) {
	reg, err := profile.Builtin()
	if err != nil {
		return nil, fmt.Errorf("loading built-in profiles: %w", err)
	}
	if cfg.ProfilesDir != "" {
		if err := reg.LoadDir(cfg.ProfilesDir); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// newEngine builds the extraction engine and the transcript loader.
func newEngine(cfg types.PipelineConfig) (*extract.Engine, *convert.Loader, error) {
	reg, err := newRegistry(cfg.Extraction)
	if err != nil {
		return nil, nil, err
	}
	engine, err := extract.NewEngine(reg, cfg.Extraction.Engine, extract.WithLogger(logger.Named("engine")))
	if err != nil {
		return nil, nil, err
	}
	conv, err := convert.New(cfg.Conversion)
	if err != nil {
		return nil, nil, err
	}
	return engine, convert.NewLoader(conv), nil
}

func openStore(cfg types.StoreConfig) (*records.Store, error) {
	return records.Open(cfg, records.WithLogger(logger.Named("store")))
}
