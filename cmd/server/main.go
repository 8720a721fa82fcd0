package main

import (
	"os"

	"github.com/rs/zerolog"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		zerolog.New(os.Stderr).Error().Err(err).Msg("wirechat exited with error")
		os.Exit(1)
	}
}
