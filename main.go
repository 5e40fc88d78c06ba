package main

import (
	"github.com/marcus/giftwell/cmd"
	"github.com/marcus/giftwell/internal/version"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	cmd.SetVersion(version.FromBuild(Version))
	cmd.Execute()
}
