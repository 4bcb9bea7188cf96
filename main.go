package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli struct {
		Deploy        DeployCmd        `kong:"cmd,help='Runs the deployment pipeline for a software package.'"`
		Journal       JournalCmd       `kong:"cmd,help='Inspects the deployment journal.'"`
		SealVariables SealVariablesCmd `kong:"cmd,name='seal-variables',help='Encrypts a variables file for distribution.'"`
		Version       VersionCmd       `kong:"cmd,help='Display rootstock version information.'"`
	}

	parser := kong.Must(&cli,
		kong.Description("Deploys software packages to hosts."),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.UsageOnError())

	app, parseErr := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(parseErr)

	appErr := app.Run()
	app.FatalIfErrorf(appErr)
}
