package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/config"
	"github.com/cory-johannsen/lootengine/internal/game/catalog"
	"github.com/cory-johannsen/lootengine/internal/game/condition"
	"github.com/cory-johannsen/lootengine/internal/game/dice"
	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/game/participant"
	"github.com/cory-johannsen/lootengine/internal/scripting"
)

// world is a fully wired engine plus the collaborators the simulator drives.
type world struct {
	engine       *loot.Engine
	registry     *loot.Handle
	items        *catalog.Registry
	conditions   *condition.Registry
	limits       loot.Limits
	participants *participant.Manager
	scripts      *scripting.Manager
}

// autoLooter stores free-for-all currency tokens by taking them through the
// engine that discovered them. The engine is bound after construction.
type autoLooter struct {
	engine *loot.Engine
	logger *zap.Logger
}

func (a *autoLooter) AutoLoot(s *loot.Session, slot uint8, v loot.Viewer) {
	if a.engine == nil {
		return
	}
	if _, err := a.engine.Take(s, slot, v); err != nil {
		a.logger.Warn("auto-loot failed",
			zap.Stringer("session", s.ID),
			zap.Uint64("viewer", v.ID()),
			zap.Uint8("slot", slot),
			zap.Error(err),
		)
	}
}

// buildWorld loads content from cfg and templates from src and wires an Engine.
// An empty scripts directory disables Lua hooks.
//
// Postcondition: Returns a ready world, or a non-nil error. The caller must
// close w.scripts when it is non-nil.
func buildWorld(ctx context.Context, cfg config.Config, src loot.RowSource, roller *dice.Roller, logger *zap.Logger) (*world, error) {
	defs, err := catalog.LoadItems(cfg.Content.ItemsDir)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	items, err := catalog.NewRegistryFrom(defs)
	if err != nil {
		return nil, fmt.Errorf("building item catalog: %w", err)
	}
	logger.Info("item catalog loaded", zap.Int("items", items.Len()))

	conds, err := condition.LoadDirectory(cfg.Content.ConditionsDir)
	if err != nil {
		return nil, fmt.Errorf("loading conditions: %w", err)
	}
	limits := loot.LimitsFromConfig(cfg.Loot.Limits)
	reg, err := loadRegistry(ctx, src, items, conds, limits, logger)
	if err != nil {
		return nil, err
	}

	participants := participant.NewManager(cfg.Loot.RewardDistance, logger)

	var hooks loot.Hooks
	var scripts *scripting.Manager
	if cfg.Content.ScriptsDir != "" {
		scripts = scripting.NewManager(roller, logger)
		scripts.LookupItem = items.Lookup
		scripts.FindParticipant = participants.Find
		n, err := scripts.LoadDir(cfg.Content.ScriptsDir, cfg.Scripting.InstructionLimit)
		if err != nil {
			scripts.Close()
			return nil, fmt.Errorf("loading loot scripts: %w", err)
		}
		logger.Info("loot scripts loaded", zap.Int("vms", n))
		hooks = scripts
	}

	rates := loot.RatesFromConfig(cfg.Loot.Rates)
	looter := &autoLooter{logger: logger}
	handle := loot.NewHandle(reg)
	engine := loot.New(loot.Deps{
		Registry:   handle,
		Catalog:    items,
		Directory:  participants,
		Roller:     roller,
		Conditions: conds,
		Groups:     participants,
		Hooks:      hooks,
		Notifier:   participants,
		AutoLooter: looter,
		Rates:      &rates,
		Limits:     &limits,
		Logger:     logger,
	})
	looter.engine = engine

	return &world{
		engine:       engine,
		registry:     handle,
		items:        items,
		conditions:   conds,
		limits:       limits,
		participants: participants,
		scripts:      scripts,
	}, nil
}

// loadRegistry builds a complete template registry from src and attaches the
// loaded conditions to it.
func loadRegistry(ctx context.Context, src loot.RowSource, items *catalog.Registry, conds *condition.Registry, limits loot.Limits, logger *zap.Logger) (*loot.Registry, error) {
	reg := loot.NewRegistry(logger)
	reg.SetMaxReferenceDepth(limits.MaxReferenceDepth)
	rows, err := reg.LoadAll(ctx, src, items)
	if err != nil {
		return nil, fmt.Errorf("loading loot templates: %w", err)
	}
	attached := conds.Attach(reg, logger)
	logger.Info("loot templates loaded",
		zap.Int("rows", rows),
		zap.Int("conditions", len(conds.All())),
		zap.Int("attached", attached),
	)
	return reg, nil
}
