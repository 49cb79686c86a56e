package main

import (
	"os"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/cmd/uad-ng/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
