package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

// PackageFile is the package descriptor exposed to templates as pkg.
const PackageFile = "package.json"

// LoadPackage parses root/package.json into plain maps. A missing file
// yields an empty map.
func LoadPackage(root string) (map[string]any, error) {
	p := filepath.Join(root, PackageFile)
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read package descriptor").
			WithContext("path", p).
			Build()
	}
	pkg := map[string]any{}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, ferrors.WrapError(fmt.Errorf("parse %s: %w", PackageFile, err), ferrors.CategoryConfig, "invalid package descriptor").
			WithContext("path", p).
			Build()
	}
	return pkg, nil
}

// TemplateData assembles the values every page template sees.
func TemplateData(cfg *Config, pkg map[string]any, now time.Time) map[string]any {
	if pkg == nil {
		pkg = map[string]any{}
	}
	return map[string]any{
		"menus": MenuMaps(cfg.Data.Menus),
		"pkg":   pkg,
		"date":  now,
	}
}
