// Command mergekit is the CLI entrypoint for the merge engine, exercising
// merge, merge-base and merge-tree the way the teacher's cmd/zeta/main.go
// assembles its subcommands under a single kong.App — except this binary
// imports the real github.com/alecthomas/kong rather than the teacher's
// in-repo pkg/kong fork, which isn't an externally fetchable dependency.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/oakmere/mergekit/pkg/config"
)

type app struct {
	Store      string `name:"store" default:".mergekit" help:"Path to the object/reference store."`
	ConfigFile string `name:"config" default:".mergekit.toml" help:"Path to a mergekit TOML configuration file."`
	Verbose    bool   `name:"verbose" short:"v" help:"Enable verbose logging."`

	Merge     mergeCmd     `cmd:"" help:"Join two histories together."`
	MergeBase mergeBaseCmd `cmd:"merge-base" help:"Find the common ancestor of two commits."`
	MergeTree mergeTreeCmd `cmd:"merge-tree" help:"Perform a merge without touching any reference or working tree."`
	Init      initCmd      `cmd:"" help:"Create an empty store and an initial branch."`

	cfg *config.Config
}

func (a *app) config() *config.Config {
	if a.cfg == nil {
		cfg, err := config.Load(a.ConfigFile)
		if err != nil {
			logrus.WithError(err).Warn("mergekit: falling back to default configuration")
			cfg = config.Default()
		}
		a.cfg = cfg
	}
	return a.cfg
}

func main() {
	var a app
	ctx := kong.Parse(&a,
		kong.Name("mergekit"),
		kong.Description("A content-addressed merge engine."),
		kong.UsageOnError(),
	)
	if a.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	err := ctx.Run(&a)
	ctx.FatalIfErrorf(err)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
