package loot

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootengine/internal/game/dice"
	"github.com/cory-johannsen/lootengine/internal/observability"
)

// Deps holds the collaborators of an Engine. Nil optional collaborators are
// replaced by neutral defaults.
type Deps struct {
	Registry   *Handle
	Catalog    Catalog
	Directory  Directory
	Roller     *dice.Roller
	Conditions Conditions
	Groups     Groups
	Hooks      Hooks
	Notifier   Notifier
	AutoLooter AutoLooter
	Rates      *Rates
	Limits     *Limits
	Logger     *zap.Logger
}

// Engine bundles the resolver, compositor and encoder over shared collaborators.
type Engine struct {
	*Resolver
	*Compositor
	*Encoder

	limits Limits
}

// New wires an Engine.
//
// Precondition: d.Registry, d.Catalog, d.Directory and d.Roller must be non-nil.
// Postcondition: Returns a ready Engine.
func New(d Deps) *Engine {
	if d.Conditions == nil {
		d.Conditions = NoConditions{}
	}
	if d.Groups == nil {
		d.Groups = NoGroups{}
	}
	if d.Hooks == nil {
		d.Hooks = NopHooks{}
	}
	rates := DefaultRates()
	if d.Rates != nil {
		rates = *d.Rates
	}
	limits := DefaultLimits()
	if d.Limits != nil {
		limits = *d.Limits
	}
	if limits.MaxReferenceExpansions <= 0 {
		limits.MaxReferenceExpansions = DefaultLimits().MaxReferenceExpansions
	}
	logger := observability.Component(d.Logger, "loot", "")

	comp := &Compositor{
		catalog:    d.Catalog,
		conditions: d.Conditions,
		groups:     d.Groups,
		directory:  d.Directory,
		hooks:      d.Hooks,
		notifier:   d.Notifier,
		autoLooter: d.AutoLooter,
		limits:     limits,
		logger:     logger,
	}
	res := &Resolver{
		registry:   d.Registry,
		catalog:    d.Catalog,
		groups:     d.Groups,
		directory:  d.Directory,
		hooks:      d.Hooks,
		roller:     d.Roller,
		rates:      rates,
		limits:     limits,
		compositor: comp,
		logger:     logger,
	}
	enc := &Encoder{catalog: d.Catalog, groups: d.Groups, compositor: comp}
	return &Engine{Resolver: res, Compositor: comp, Encoder: enc, limits: limits}
}

// NewSession creates an empty session for source using the engine's limits.
func (e *Engine) NewSession(source Origin) *Session {
	return NewSession(source, e.limits)
}

// View computes v's subset if needed and encodes the window under perm.
func (e *Engine) View(s *Session, v Viewer, perm Permission) []byte {
	e.ComputeView(s, v)
	return e.Encode(s, v, perm)
}
