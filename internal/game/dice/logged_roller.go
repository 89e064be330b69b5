package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged loot rolls.
// Chance rolls are logged at debug level with the chance and the rolled value.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Chance returns a uniform percentage in [0, 100).
func (r *Roller) Chance() float64 {
	return r.src.Float64() * 100
}

// RollChance reports whether a roll against chance percent succeeds.
//
// Postcondition: chance <= 0 never succeeds; chance >= 100 always succeeds.
func (r *Roller) RollChance(chance float64) bool {
	roll := r.Chance()
	ok := chance > roll
	r.logger.Debug("chance roll",
		zap.Float64("chance", chance),
		zap.Float64("roll", roll),
		zap.Bool("success", ok),
	)
	return ok
}

// URand returns a uniform value in the inclusive range [min, max].
//
// Postcondition: if max <= min, min is returned.
func (r *Roller) URand(min, max uint32) uint32 {
	if max <= min {
		return min
	}
	return min + uint32(r.src.Intn(int(max-min)+1))
}

// Pick returns a uniform index in [0, n).
//
// Precondition: n > 0.
func (r *Roller) Pick(n int) int {
	return r.src.Intn(n)
}
