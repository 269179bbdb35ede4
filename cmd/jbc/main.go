// jbc assembles, disassembles and stores JVM method bodies.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/urfave/cli/v2"

	"github.com/mohanaraosv/commons-bcel-sub001/config"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Directory to start the jbc.toml search from",
		Value: ".",
	}
	verbosityFlag = &cli.IntFlag{
		Name:    "verbosity",
		Aliases: []string{"v"},
		Usage:   "Log verbosity, overriding jbc.toml",
	}
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "jbc",
		Usage: "JVM bytecode assembler and method store",
		Flags: []cli.Flag{configFlag, verbosityFlag, noColorFlag},
		Commands: []*cli.Command{
			asmCommand,
			disCommand,
			poolCommand,
			storeCommand,
		},
		Before: setup,
	}
}

// setup loads the configuration and configures logging and color before
// any command runs.
func setup(ctx *cli.Context) error {
	cfg, err := config.FindAndLoad(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Log.Verbosity = ctx.Int(verbosityFlag.Name)
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogFile())
	if ctx.Bool(noColorFlag.Name) {
		color.NoColor = true
	}
	if ctx.App.Metadata == nil {
		ctx.App.Metadata = make(map[string]any)
	}
	ctx.App.Metadata["config"] = cfg
	return nil
}

func configFrom(ctx *cli.Context) *config.Config {
	if cfg, ok := ctx.App.Metadata["config"].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}
