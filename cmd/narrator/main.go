package main

import (
	"os"

	"github.com/lexiqai/pdf-narrator/cmd/narrator/commands"
	"github.com/lexiqai/pdf-narrator/cmd/narrator/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}
