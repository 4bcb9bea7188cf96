package main

import (
	"context"
	"fmt"
	"runtime/debug"
)

// VersionCmd displays version information for the rootstock executable.
type VersionCmd struct{}

// Run executes the rootstock version command.
func (cmd VersionCmd) Run(ctx context.Context) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Println("rootstock (unknown version)")
		return nil
	}

	fmt.Printf("rootstock %s (%s)\n", info.Main.Version, info.GoVersion)

	return nil
}
