package game

import (
	"errors"

	"pkmn-bridge/layout"
)

var (
	// ErrEngine is returned when the engine reports an internal error.
	// The battle buffer must be considered corrupt afterwards.
	ErrEngine = errors.New("game: engine error")

	// ErrSoftlock is returned when a player has no legal choices, which
	// indicates a desynced or hand-corrupted battle state.
	ErrSoftlock = errors.New("game: no legal choices available")

	ErrOutOfRange = errors.New("game: value out of range")
	ErrTeamSize   = errors.New("game: team must have 1 to 6 pokemon")
)

type Player uint8

const (
	P1 Player = 0
	P2 Player = 1
)

func (p Player) String() string {
	if p == P2 {
		return "p2"
	}
	return "p1"
}

func (p Player) Opponent() Player {
	return p ^ 1
}

type ChoiceKind uint8

const (
	ChoicePass   ChoiceKind = 0
	ChoiceMove   ChoiceKind = 1
	ChoiceSwitch ChoiceKind = 2
)

func (k ChoiceKind) String() string {
	switch k {
	case ChoiceMove:
		return "move"
	case ChoiceSwitch:
		return "switch"
	default:
		return "pass"
	}
}

// Choice is the single-byte choice encoding the engine consumes: the
// kind in the low two bits, the move or party slot in the rest.
type Choice uint8

func PassChoice() Choice {
	return 0
}

func MoveChoice(slot int) Choice {
	return NewChoice(ChoiceMove, slot)
}

func SwitchChoice(slot int) Choice {
	return NewChoice(ChoiceSwitch, slot)
}

func NewChoice(kind ChoiceKind, data int) Choice {
	return Choice(uint8(kind) | uint8(data)<<2)
}

func (c Choice) Kind() ChoiceKind {
	return ChoiceKind(c & 0b11)
}

// Data is the one-based move or party slot, or zero for a pass.
func (c Choice) Data() int {
	return int(c >> 2)
}

type ResultKind uint8

const (
	ResultNone  ResultKind = 0
	ResultWinP1 ResultKind = 1
	ResultWinP2 ResultKind = 2
	ResultTie   ResultKind = 3
	ResultError ResultKind = 4
)

func (k ResultKind) String() string {
	switch k {
	case ResultWinP1:
		return "p1 win"
	case ResultWinP2:
		return "p2 win"
	case ResultTie:
		return "tie"
	case ResultError:
		return "error"
	default:
		return "none"
	}
}

// Result is the single-byte update result: the outcome in the low four
// bits and the kind of choice each player must make next in the high
// four.
type Result uint8

func (r Result) Kind() ResultKind {
	return ResultKind(r & 0x0F)
}

func (r Result) P1ChoiceKind() ChoiceKind {
	return ChoiceKind(r >> 4 & 0b11)
}

func (r Result) P2ChoiceKind() ChoiceKind {
	return ChoiceKind(r >> 6 & 0b11)
}

func (r Result) IsError() bool {
	return r.Kind() == ResultError
}

// Terminal reports whether the battle is over.
func (r Result) Terminal() bool {
	return r.Kind() != ResultNone
}

// Engine is the boundary to the external battle engine. Update advances
// the battle one step, writing protocol messages into trace, and
// Choices enumerates the legal choices for a player into out, returning
// how many it wrote. Both operate directly on the battle buffer.
type Engine interface {
	Update(battle []byte, c1, c2 Choice, trace []byte) Result
	Choices(battle []byte, player Player, kind ChoiceKind, out []Choice) int
}

// VolatileFlag identifies one of the boolean volatile conditions of an
// active pokemon.
type VolatileFlag int

const (
	VolatileBide VolatileFlag = iota
	VolatileThrashing
	VolatileMultiHit
	VolatileFlinch
	VolatileCharging
	VolatileBinding
	VolatileInvulnerable
	VolatileConfusion
	VolatileMist
	VolatileFocusEnergy
	VolatileSubstitute
	VolatileRecharging
	VolatileRage
	VolatileLeechSeed
	VolatileToxic
	VolatileLightScreen
	VolatileReflect
	VolatileTransform
)

func (f VolatileFlag) bit(s *layout.Schema) int {
	v := s.Volatiles
	switch f {
	case VolatileBide:
		return v.Bide
	case VolatileThrashing:
		return v.Thrashing
	case VolatileMultiHit:
		return v.MultiHit
	case VolatileFlinch:
		return v.Flinch
	case VolatileCharging:
		return v.Charging
	case VolatileBinding:
		return v.Binding
	case VolatileInvulnerable:
		return v.Invulnerable
	case VolatileConfusion:
		return v.Confusion
	case VolatileMist:
		return v.Mist
	case VolatileFocusEnergy:
		return v.FocusEnergy
	case VolatileSubstitute:
		return v.Substitute
	case VolatileRecharging:
		return v.Recharging
	case VolatileRage:
		return v.Rage
	case VolatileLeechSeed:
		return v.LeechSeed
	case VolatileToxic:
		return v.Toxic
	case VolatileLightScreen:
		return v.LightScreen
	case VolatileReflect:
		return v.Reflect
	case VolatileTransform:
		return v.Transform
	default:
		panic("game: unknown volatile flag")
	}
}
