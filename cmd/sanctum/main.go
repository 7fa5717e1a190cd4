// Command sanctum is a local journaling presence: it learns a voice from
// self-authored writing in its archive and answers questions in that voice.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/sanctum/internal/archive"
	"github.com/kalambet/sanctum/internal/config"
	"github.com/kalambet/sanctum/internal/storage"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "sanctum",
	Short:         "A journaling presence that writes in its own learned voice",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		evolveCmd,
		signatureCmd,
		reflectCmd,
		respondCmd,
		museCmd,
		threadsCmd,
		awakenCmd,
		seedCmd,
		dreamCmd,
		sandboxCmd,
		configCmd,
		serveCmd,
		stopCmd,
		statusCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openLocal loads config, ensures the archive layout and opens storage for
// commands that work on the sanctum directly rather than through the server.
func openLocal() (config.Config, *storage.Store, archive.Layout, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, archive.Layout{}, err
	}

	layout := archive.NewLayout(cfg.Archive.Root)
	if err := layout.Ensure(); err != nil {
		return config.Config{}, nil, archive.Layout{}, fmt.Errorf("preparing archive: %w", err)
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return config.Config{}, nil, archive.Layout{}, fmt.Errorf("opening storage: %w", err)
	}

	return cfg, store, layout, nil
}
