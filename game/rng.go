package game

// The Showdown-compatible 64-bit linear congruential generator the
// engine steps; the output is the high 32 bits of the state.
const (
	rngMultiplier = 0x5D588B656C078965
	rngIncrement  = 0x269EC3
)

// ShowdownRNG mirrors the engine's random number generator so a host
// can predict or replay its rolls from a battle's seed.
type ShowdownRNG struct {
	seed uint64
}

func NewShowdownRNG(seed uint64) *ShowdownRNG {
	return &ShowdownRNG{seed: seed}
}

// Seed returns the current generator state.
func (r *ShowdownRNG) Seed() uint64 {
	return r.seed
}

// Next advances the generator and returns the next 32-bit output.
func (r *ShowdownRNG) Next() uint32 {
	r.seed = r.seed*rngMultiplier + rngIncrement
	return uint32(r.seed >> 32)
}

// InRange returns a roll in [min, max) the way Showdown scales its
// outputs.
func (r *ShowdownRNG) InRange(min, max uint32) uint32 {
	return min + uint32(uint64(r.Next())*uint64(max-min)>>32)
}
