package game

import (
	"encoding/binary"
	"fmt"

	"pkmn-bridge/layout"
)

const (
	// TraceSize is the engine's protocol buffer size for one update.
	TraceSize = 180
	// MaxChoices is the most choices the engine can enumerate: four
	// moves plus five switches, or a lone pass.
	MaxChoices = 9
)

// Battle owns one battle's serialized state and drives it through an
// Engine. A Battle is not safe for concurrent use.
type Battle struct {
	buf     []byte
	engine  Engine
	trace   []byte
	choices [MaxChoices]Choice
	s       *layout.Schema
}

// NewBattle serializes both teams into a fresh battle buffer with the
// given RNG seed. Team order becomes party order.
func NewBattle(engine Engine, p1Team, p2Team []PokemonSpec, seed uint64) (*Battle, error) {
	s := layout.Gen1()
	b := &Battle{
		buf:    make([]byte, s.Sizes.Battle),
		engine: engine,
		trace:  make([]byte, TraceSize),
		s:      s,
	}
	for i, team := range [2][]PokemonSpec{p1Team, p2Team} {
		if err := b.writeSide(Player(i), team); err != nil {
			return nil, err
		}
	}
	b.SetRNGSeed(seed)
	return b, nil
}

func (b *Battle) writeSide(p Player, team []PokemonSpec) error {
	if len(team) < 1 || len(team) > TeamSize {
		return fmt.Errorf("%w: %s has %d", ErrTeamSize, p, len(team))
	}
	base := b.sideOffset(p)
	for i, spec := range team {
		if err := WritePokemon(b.buf, base+b.s.Side.Pokemon+i*b.s.Sizes.Pokemon, spec); err != nil {
			return fmt.Errorf("%s slot %d: %w", p, i+1, err)
		}
	}
	var order [TeamSize]uint8
	for i := range team {
		order[i] = uint8(i + 1)
	}
	b.Side(p).SetOrder(order)
	return nil
}

func (b *Battle) sideOffset(p Player) int {
	return b.s.Battle.Sides + int(p)*b.s.Sizes.Side
}

// Bytes exposes the raw battle buffer the engine operates on.
func (b *Battle) Bytes() []byte {
	return b.buf
}

func (b *Battle) Side(p Player) Side {
	off := b.sideOffset(p)
	return Side{buf: b.buf[off : off+b.s.Sizes.Side], s: b.s}
}

func (b *Battle) Turn() uint16 {
	return binary.LittleEndian.Uint16(b.buf[b.s.Battle.Turn:])
}

func (b *Battle) SetTurn(turn uint16) {
	binary.LittleEndian.PutUint16(b.buf[b.s.Battle.Turn:], turn)
}

func (b *Battle) LastDamage() uint16 {
	return binary.LittleEndian.Uint16(b.buf[b.s.Battle.LastDamage:])
}

func (b *Battle) SetLastDamage(damage uint16) {
	binary.LittleEndian.PutUint16(b.buf[b.s.Battle.LastDamage:], damage)
}

// LastSelectedIndex is a player's move slot from the previous turn.
func (b *Battle) LastSelectedIndex(p Player) uint16 {
	return binary.LittleEndian.Uint16(b.buf[b.s.Battle.LastSelectedIndexes+2*int(p):])
}

func (b *Battle) SetLastSelectedIndex(p Player, idx uint16) {
	binary.LittleEndian.PutUint16(b.buf[b.s.Battle.LastSelectedIndexes+2*int(p):], idx)
}

func (b *Battle) RNGSeed() uint64 {
	return binary.LittleEndian.Uint64(b.buf[b.s.Battle.RNG:])
}

func (b *Battle) SetRNGSeed(seed uint64) {
	binary.LittleEndian.PutUint64(b.buf[b.s.Battle.RNG:], seed)
}

// Update advances the battle with one choice per player. The returned
// trace is the engine's zero-terminated protocol stream; it aliases an
// internal buffer and is only valid until the next Update.
func (b *Battle) Update(c1, c2 Choice) (Result, []byte, error) {
	for i := range b.trace {
		b.trace[i] = 0
	}
	res := b.engine.Update(b.buf, c1, c2, b.trace)
	if res.IsError() {
		return res, nil, fmt.Errorf("%w: update with %v/%v on turn %d", ErrEngine, c1.Kind(), c2.Kind(), b.Turn())
	}
	return res, b.trace, nil
}

// PossibleChoices enumerates a player's legal choices of the requested
// kind. The slice aliases an internal buffer and is only valid until
// the next call. An empty set means the state is unplayable and is
// reported as ErrSoftlock.
func (b *Battle) PossibleChoices(p Player, kind ChoiceKind) ([]Choice, error) {
	n := b.engine.Choices(b.buf, p, kind, b.choices[:])
	if n == 0 {
		return nil, fmt.Errorf("%w: %s has no %v choices on turn %d", ErrSoftlock, p, kind, b.Turn())
	}
	return b.choices[:n], nil
}

// Picker selects one choice from a player's legal set.
type Picker func(p Player, choices []Choice) Choice

// Run plays the battle to completion. Each update's trace is handed to
// sink before the next step; a nil sink discards traces. Run returns
// the terminal result, or the first engine, softlock, or sink error.
func (b *Battle) Run(pick Picker, sink func(trace []byte) error) (Result, error) {
	res, trace, err := b.Update(PassChoice(), PassChoice())
	for {
		if err != nil {
			return res, err
		}
		if sink != nil {
			if err := sink(trace); err != nil {
				return res, err
			}
		}
		if res.Terminal() {
			return res, nil
		}

		var c1, c2 Choice
		if c1, err = b.pickFor(P1, res.P1ChoiceKind(), pick); err != nil {
			return res, err
		}
		if c2, err = b.pickFor(P2, res.P2ChoiceKind(), pick); err != nil {
			return res, err
		}
		res, trace, err = b.Update(c1, c2)
	}
}

func (b *Battle) pickFor(p Player, kind ChoiceKind, pick Picker) (Choice, error) {
	choices, err := b.PossibleChoices(p, kind)
	if err != nil {
		return PassChoice(), err
	}
	return pick(p, choices), nil
}
