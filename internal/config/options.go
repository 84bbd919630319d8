package config

import (
	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

// Flags carries the raw command-line toggles before defaults are applied.
// Branch is a pointer so an explicitly empty value can be told apart from
// an absent one.
type Flags struct {
	Production bool
	Prod       bool
	Open       bool
	Port       int
	Branch     *string
}

// Options are the resolved toggles every step reads.
type Options struct {
	Production bool
	Open       bool
	Port       int
	Branch     string
}

// ResolveOptions applies the documented defaults: production mode off,
// open=false, port 2080, branch gh-pages.
func ResolveOptions(f Flags) (Options, error) {
	opts := Options{
		Production: f.Production || f.Prod,
		Open:       f.Open,
		Port:       f.Port,
		Branch:     DefaultBranch,
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Port < 0 || opts.Port > 65535 {
		return Options{}, ferrors.ValidationError("port out of range").WithContext("port", f.Port).Build()
	}
	if f.Branch != nil {
		if *f.Branch == "" {
			return Options{}, ferrors.ValidationError("deploy branch must not be empty").Build()
		}
		opts.Branch = *f.Branch
	}
	return opts, nil
}
