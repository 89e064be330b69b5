// Package main imports YAML loot template content into the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cory-johannsen/lootengine/internal/config"
	"github.com/cory-johannsen/lootengine/internal/importer"
	"github.com/cory-johannsen/lootengine/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	format := flag.String("format", "yaml", "source format: yaml")
	sourceDir := flag.String("source", "content/loot", "path to loot template content directory")
	flag.Parse()

	if *sourceDir == "" {
		fmt.Fprintln(os.Stderr, "usage: import-content [-config <file>] [-format yaml] -source <dir>")
		os.Exit(1)
	}

	var src importer.Source
	switch *format {
	case "yaml":
		src = importer.NewYAMLSource()
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q (supported: yaml)\n", *format)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s store: %v\n", cfg.Database.Driver, err)
		os.Exit(1)
	}
	defer store.Close()

	start := time.Now()
	if err := importer.New(src, store, os.Stdout).Run(ctx, *sourceDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		store.Close()
		os.Exit(1)
	}
	fmt.Printf("import complete in %s\n", time.Since(start).Round(time.Millisecond))
}
