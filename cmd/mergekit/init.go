package main

import (
	"fmt"
	"path/filepath"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/refstore"
)

type initCmd struct {
	Branch string `name:"branch" default:"main" help:"Name of the initial branch HEAD points at."`
}

func (c *initCmd) Run(a *app) error {
	store, err := objstore.NewDiskStore(a.Store)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer store.Close()
	refs := refstore.New(c.Branch)
	if err := refstore.SaveDisk(refsPath(a), refs); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	fmt.Printf("initialized empty store at %s (HEAD -> %s)\n", a.Store, c.Branch)
	return nil
}

func refsPath(a *app) string {
	return filepath.Join(a.Store, "refs")
}
