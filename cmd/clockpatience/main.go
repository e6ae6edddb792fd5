package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the clock patience API server"`
	Play     PlayCmd          `cmd:"" help:"Play interactively against a server"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate many automatic games and report win rates"`
	Shuffle  ShuffleCmd       `cmd:"" help:"Print the deck order produced by a sequence of cuts"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("clockpatience"),
		kong.Description("Clock patience game server, client and simulator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
