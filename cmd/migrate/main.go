// Package main provides the loot template schema migration runner.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/lootengine/internal/config"
	"github.com/cory-johannsen/lootengine/internal/storage/schema"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", schema.Up, "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	m, err := schema.New(schema.URL(cfg.Database))
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer m.Close()

	if err := schema.Run(m, *direction, *steps); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	version, dirty, _ := m.Version()
	fmt.Fprintf(os.Stdout, "migrated %s %s to version=%d dirty=%v [%s]\n",
		cfg.Database.Driver, *direction, version, dirty, time.Since(start))
}
