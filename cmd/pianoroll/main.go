package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/zurustar/pianoroll/pkg/app"
)

// Drop a .sf2 into soundfonts/ before building to ship it inside the binary.
//
//go:embed soundfonts
var embeddedSoundFonts embed.FS

func main() {
	application := app.New(embeddedSoundFonts)
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
