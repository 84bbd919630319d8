package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepipe/internal/foundation"
	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// Load reads the configuration file at path (relative paths resolve against
// root). A missing file yields the defaults. Environment files in root are
// loaded first so ${VAR} references in the YAML can use them.
func Load(root, path string) (*Config, error) {
	loadEnvFiles(root)

	if path == "" {
		path = DefaultConfigFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No configuration file, using defaults", logfields.Path(path))
		return Default(), nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Fatal().
			Build()
	}

	cfg, err := Parse(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid config file").
			WithContext("path", path).
			Fatal().
			Build()
	}
	slog.Debug("Loaded configuration", logfields.Path(path))
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildValidator checks the directory layout for empty or clashing entries.
var buildValidator = foundation.NewValidatorChain(
	foundation.Required("build.src", func(b BuildConfig) string { return b.Src }),
	foundation.Required("build.dist", func(b BuildConfig) string { return b.Dist }),
	foundation.Required("build.temp", func(b BuildConfig) string { return b.Temp }),
	foundation.Required("build.public", func(b BuildConfig) string { return b.Public }),
	foundation.Distinct(func(b BuildConfig) map[string]string {
		return map[string]string{"build.src": b.Src, "build.temp": b.Temp, "build.dist": b.Dist}
	}, []string{"build.src", "build.temp", "build.dist"}, filepath.Clean),
	foundation.LocalDir("build.dist", func(b BuildConfig) string { return b.Dist }),
	foundation.LocalDir("build.temp", func(b BuildConfig) string { return b.Temp }),
	inputsOutsideOutputs,
)

// inputsOutsideOutputs rejects layouts where cleaning dist or temp would
// remove src or public.
func inputsOutsideOutputs(b BuildConfig) foundation.ValidationResult {
	res := foundation.Valid()
	outputs := []struct{ field, dir string }{{"build.dist", b.Dist}, {"build.temp", b.Temp}}
	inputs := []struct{ field, dir string }{{"build.src", b.Src}, {"build.public", b.Public}}
	for _, out := range outputs {
		for _, in := range inputs {
			if out.dir == "" || in.dir == "" || !isWithin(out.dir, in.dir) {
				continue
			}
			res = res.Combine(foundation.Invalid(foundation.NewFieldError(out.field, "contains_input",
				fmt.Sprintf("cleaning %q would remove %s %q", out.dir, in.field, in.dir))))
		}
	}
	return res
}

// isWithin reports whether child is parent or lies below it.
func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}

// Validate checks the directory layout for empty or clashing entries.
func Validate(cfg *Config) error {
	return buildValidator.Validate(cfg.Build).ToError()
}

// loadEnvFiles loads .env and .env.local from root. Variables already present
// in the process environment are not overwritten.
func loadEnvFiles(root string) {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(p), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(p))
	}
}
