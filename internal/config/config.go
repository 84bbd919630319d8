// Package config holds the site configuration: directory layout, source
// globs, template data, deploy and dev server settings, plus the resolution
// of command-line options.
package config

// Config represents the sitepipe configuration file (sitepipe.yaml).
type Config struct {
	Build  BuildConfig  `yaml:"build"`
	Data   DataConfig   `yaml:"data"`
	Deploy DeployConfig `yaml:"deploy"`
	Lint   LintConfig   `yaml:"lint"`
	Server ServerConfig `yaml:"server"`
}

// BuildConfig describes the directory layout of a project.
type BuildConfig struct {
	Src    string `yaml:"src"`
	Dist   string `yaml:"dist"`
	Temp   string `yaml:"temp"`
	Public string `yaml:"public"`
	Paths  Paths  `yaml:"paths"`
}

// Paths are glob patterns relative to BuildConfig.Src.
type Paths struct {
	Styles  string `yaml:"styles"`
	Scripts string `yaml:"scripts"`
	Pages   string `yaml:"pages"`
	Images  string `yaml:"images"`
	Fonts   string `yaml:"fonts"`
}

// DataConfig is the static template data exposed to pages.
type DataConfig struct {
	Menus []Menu `yaml:"menus"`
}

// Menu is a navigation entry. A Menu named "divider" renders as a separator.
type Menu struct {
	Name     string `yaml:"name"`
	Icon     string `yaml:"icon,omitempty"`
	Link     string `yaml:"link,omitempty"`
	Children []Menu `yaml:"children,omitempty"`
}

// DeployConfig controls publishing of the dist directory to a git branch.
type DeployConfig struct {
	Remote   string `yaml:"remote"`
	Message  string `yaml:"message"`
	Repo     string `yaml:"repo,omitempty"` // push URL override; defaults to the remote's URL
	CacheDir string `yaml:"cache_dir"`
	UserName string `yaml:"user_name,omitempty"`
	Email    string `yaml:"user_email,omitempty"`

	// PushRetries bounds re-pushing after network errors; nil keeps the
	// default of 2.
	PushRetries *int `yaml:"push_retries,omitempty"`
}

// LintConfig points the external linters at their rule files.
type LintConfig struct {
	StylelintConfig string `yaml:"stylelint_config"`
	JSHintConfig    string `yaml:"jshint_config"`
}

// ServerConfig holds dev server settings that are not command-line flags.
type ServerConfig struct {
	// Routes maps URL prefixes to directories, checked before the base dirs.
	Routes map[string]string `yaml:"routes"`
}

// MenuMaps converts menus into plain maps so templates can address fields
// with lower-case names (menu.name, menu.children).
func MenuMaps(menus []Menu) []map[string]any {
	out := make([]map[string]any, 0, len(menus))
	for _, m := range menus {
		entry := map[string]any{
			"name": m.Name,
			"icon": m.Icon,
			"link": m.Link,
		}
		if len(m.Children) > 0 {
			entry["children"] = MenuMaps(m.Children)
		}
		out = append(out, entry)
	}
	return out
}
