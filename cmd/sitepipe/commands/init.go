package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitepipe/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	dir, err := root.ProjectRoot()
	if err != nil {
		return err
	}
	path := root.Config
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, err = fmt.Fprintf(g.out(), "Wrote %s\n", path)
	return err
}
