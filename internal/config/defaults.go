package config

const (
	// DefaultConfigFile is the file name looked up in the project root.
	DefaultConfigFile = "sitepipe.yaml"
	// DefaultPort is the dev server port when --port is not given.
	DefaultPort = 2080
	// DefaultBranch is the deploy branch when --branch is not given.
	DefaultBranch = "gh-pages"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) {
	b := &cfg.Build
	setDefault(&b.Src, "src")
	setDefault(&b.Dist, "dist")
	setDefault(&b.Temp, "temp")
	setDefault(&b.Public, "public")
	setDefault(&b.Paths.Styles, "assets/styles/*.scss")
	setDefault(&b.Paths.Scripts, "assets/scripts/*.js")
	setDefault(&b.Paths.Pages, "*.html")
	setDefault(&b.Paths.Images, "assets/images/**")
	setDefault(&b.Paths.Fonts, "assets/fonts/**")
}

type dataDefaults struct{}

func (dataDefaults) Domain() string { return "data" }

func (dataDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Data.Menus == nil {
		cfg.Data.Menus = DefaultMenus()
	}
}

type deployDefaults struct{}

func (deployDefaults) Domain() string { return "deploy" }

func (deployDefaults) ApplyDefaults(cfg *Config) {
	setDefault(&cfg.Deploy.Remote, "origin")
	setDefault(&cfg.Deploy.Message, "Updates")
	setDefault(&cfg.Deploy.CacheDir, ".sitepipe/gh-pages")
}

type lintDefaults struct{}

func (lintDefaults) Domain() string { return "lint" }

func (lintDefaults) ApplyDefaults(cfg *Config) {
	setDefault(&cfg.Lint.StylelintConfig, ".stylelintrc")
	setDefault(&cfg.Lint.JSHintConfig, ".jshintrc")
}

type serverDefaults struct{}

func (serverDefaults) Domain() string { return "server" }

func (serverDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Server.Routes == nil {
		cfg.Server.Routes = map[string]string{"/node_modules": "node_modules"}
	}
}

var appliers = []DefaultApplier{buildDefaults{}, dataDefaults{}, deployDefaults{}, lintDefaults{}, serverDefaults{}}

// ApplyDefaults fills every unset field with its default value.
func ApplyDefaults(cfg *Config) {
	for _, a := range appliers {
		a.ApplyDefaults(cfg)
	}
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// DefaultMenus returns the stock navigation menu.
func DefaultMenus() []Menu {
	return []Menu{
		{Name: "Home", Icon: "aperture", Link: "index.html"},
		{Name: "Features", Link: "features.html"},
		{Name: "About", Link: "about.html"},
		{
			Name: "Contact",
			Link: "#",
			Children: []Menu{
				{Name: "Twitter", Link: "https://twitter.com/w_zce"},
				{Name: "About", Link: "https://weibo.com/zceme"},
				{Name: "divider"},
				{Name: "About", Link: "https://github.com/zce"},
			},
		},
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
