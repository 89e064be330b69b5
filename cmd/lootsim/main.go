// Package main provides lootsim, which resolves a loot template many times
// against the configured content and reports drop frequencies or encoded views.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/config"
	"github.com/cory-johannsen/lootengine/internal/game/dice"
	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/observability"
	"github.com/cory-johannsen/lootengine/internal/server"
	"github.com/cory-johannsen/lootengine/internal/storage"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	table := flag.String("table", "creature", "loot table, with or without the _loot_template suffix")
	lootID := flag.Uint("id", 0, "loot template id to resolve")
	runs := flag.Int("n", 1000, "number of resolutions")
	seed := flag.Uint64("seed", 0, "deterministic dice seed; 0 = crypto source")
	party := flag.Int("party", 1, "party size; the first member owns the loot")
	level := flag.Int("level", 80, "participant level")
	team := flag.String("team", "alliance", "participant team")
	quests := flag.String("quests", "", "started quests as quest[:item+item...], comma-separated")
	moneyMin := flag.Uint("money-min", 0, "minimum currency")
	moneyMax := flag.Uint("money-max", 0, "maximum currency; 0 = none")
	mode := flag.Uint("mode", uint(loot.ModeDefault), "active loot mode bitmask")
	personal := flag.Bool("personal", false, "skip group distribution")
	threshold := flag.String("threshold", "", "party loot threshold quality name")
	view := flag.String("view", "", "dump one session's encoded windows under this permission instead of tallying")
	watch := flag.Bool("watch", false, "keep running; reload templates and re-run the simulation on SIGHUP")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	sc := scenario{
		LootID:    uint32(*lootID),
		Runs:      *runs,
		Party:     *party,
		Level:     *level,
		Team:      *team,
		MoneyMin:  uint32(*moneyMin),
		MoneyMax:  uint32(*moneyMax),
		Mode:      loot.Mode(*mode),
		Personal:  *personal,
		Threshold: *threshold,
	}
	sc.Table = *table
	if !strings.HasSuffix(sc.Table, "_loot_template") {
		sc.Table += "_loot_template"
	}
	if !loot.IsTable(sc.Table) {
		logger.Fatal("unknown loot table", zap.String("table", *table))
	}
	if sc.Party < 1 || sc.Runs < 1 {
		logger.Fatal("party and n must be at least 1", zap.Int("party", sc.Party), zap.Int("n", sc.Runs))
	}
	sc.Quests, err = parseQuests(*quests)
	if err != nil {
		logger.Fatal("invalid -quests", zap.Error(err))
	}

	src := dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("opening template store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer store.Close()

	w, err := buildWorld(ctx, cfg, store, roller, logger)
	if err != nil {
		logger.Fatal("building world", zap.Error(err))
	}
	if w.scripts != nil {
		defer w.scripts.Close()
	}

	owner, err := setupParty(w.participants, sc)
	if err != nil {
		logger.Fatal("setting up party", zap.Error(err))
	}
	logger.Info("simulation ready",
		zap.String("table", sc.Table),
		zap.Uint32("loot_id", sc.LootID),
		zap.Int("party", sc.Party),
		zap.Duration("elapsed", time.Since(start)),
	)

	if *view != "" {
		perm, ok := loot.ParsePermission(*view)
		if !ok {
			logger.Fatal("unknown permission", zap.String("view", *view))
		}
		if err := w.dumpViews(os.Stdout, sc, owner, perm); err != nil {
			logger.Fatal("dumping views", zap.Error(err))
		}
		return
	}

	run := func() {
		t0 := time.Now()
		t, err := w.simulate(sc, owner)
		if err != nil {
			logger.Error("simulating", zap.Error(err))
			return
		}
		report(os.Stdout, t, w.items)
		logger.Info("simulation complete", zap.Int("runs", t.Runs), zap.Duration("elapsed", time.Since(t0)))
	}
	run()
	if !*watch {
		return
	}

	reloader := server.NewReloader(w.registry, func(ctx context.Context) (*loot.Registry, error) {
		return loadRegistry(ctx, store, w.items, w.conditions, w.limits, logger)
	}, func(*loot.Registry) { run() }, logger)
	lc := server.NewLifecycle(logger)
	lc.Add("template-reloader", reloader)
	logger.Info("watching for SIGHUP", zap.Int("pid", os.Getpid()))
	if err := lc.Run(ctx); err != nil {
		logger.Error("watch ended", zap.Error(err))
	}
}

// parseQuests parses "1200:5000+5001,1201" into quest -> needed items.
func parseQuests(spec string) (map[uint32][]uint32, error) {
	out := make(map[uint32][]uint32)
	for _, f := range strings.Split(spec, ",") {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		questPart, itemPart, _ := strings.Cut(f, ":")
		q, err := strconv.ParseUint(questPart, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("quest %q: %w", questPart, err)
		}
		var items []uint32
		for _, it := range strings.Split(itemPart, "+") {
			if it == "" {
				continue
			}
			id, err := strconv.ParseUint(it, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("quest %d item %q: %w", q, it, err)
			}
			items = append(items, uint32(id))
		}
		out[uint32(q)] = items
	}
	return out, nil
}
