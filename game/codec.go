package game

import (
	"encoding/binary"
	"fmt"
	"math"

	"pkmn-bridge/bitpack"
	"pkmn-bridge/data"
	"pkmn-bridge/layout"
)

const (
	// TeamSize is the maximum party size per side.
	TeamSize = 6
	// MoveSlots is the number of move slots per pokemon.
	MoveSlots = 4
	// MaxPP is the stored PP cap after PP Ups.
	MaxPP = 61
)

// StatTable holds one value per Gen-1 stat. It doubles as a DV or stat
// experience table when building a pokemon.
type StatTable struct {
	HP  uint16
	Atk uint16
	Def uint16
	Spe uint16
	Spc uint16
}

// Boosts holds the six stat stages of an active pokemon, each in
// [-6, 6].
type Boosts struct {
	Atk      int8
	Def      int8
	Spe      int8
	Spc      int8
	Accuracy int8
	Evasion  int8
}

// MoveSlot is a move name and its remaining PP.
type MoveSlot struct {
	Move string
	PP   uint8
}

// PokemonSpec describes a party member to serialize. Zero values mean
// defaults: level 100, full HP, no status, max DVs and stat experience,
// the species' own types, and PP-Up-maxed PP.
type PokemonSpec struct {
	Species string
	Moves   []string
	Level   uint8
	HP      *uint16
	Status  uint8
	Stats   *StatTable
	Types   []string
	MovePP  []uint8
	DVs     *StatTable
	StatExp *StatTable
}

// CalcStat computes a Gen-1 stat from its base value, DV, stat
// experience and level. isHP selects the HP formula variant.
func CalcStat(base, dv, exp, level int, isHP bool) uint16 {
	evBonus := int(math.Ceil(math.Sqrt(float64(exp))))
	if evBonus > 255 {
		evBonus = 255
	}
	factor := 5
	if isHP {
		factor = level + 10
	}
	return uint16((2*(base+dv)+evBonus/4)*level/100 + factor)
}

// maxedPP is the stored PP of a move with three PP Ups applied.
func maxedPP(base int) uint8 {
	pp := base * 8 / 5
	if pp > MaxPP {
		pp = MaxPP
	}
	return uint8(pp)
}

func computeStats(spec PokemonSpec, base data.Stats, level int) StatTable {
	dvs := StatTable{15, 15, 15, 15, 15}
	if spec.DVs != nil {
		dvs = *spec.DVs
	}
	exps := StatTable{65535, 65535, 65535, 65535, 65535}
	if spec.StatExp != nil {
		exps = *spec.StatExp
	}
	return StatTable{
		HP:  CalcStat(base.HP, int(dvs.HP), int(exps.HP), level, true),
		Atk: CalcStat(base.Atk, int(dvs.Atk), int(exps.Atk), level, false),
		Def: CalcStat(base.Def, int(dvs.Def), int(exps.Def), level, false),
		Spe: CalcStat(base.Spe, int(dvs.Spe), int(exps.Spe), level, false),
		Spc: CalcStat(base.Spc, int(dvs.Spc), int(exps.Spc), level, false),
	}
}

// WritePokemon serializes spec into the pokemon-sized region of buf
// starting at off. The region is fully overwritten.
func WritePokemon(buf []byte, off int, spec PokemonSpec) error {
	s := layout.Gen1()
	size := s.Sizes.Pokemon
	if off < 0 || off+size > len(buf) {
		return fmt.Errorf("%w: pokemon region [%d, %d) outside buffer of %d", ErrOutOfRange, off, off+size, len(buf))
	}
	p := buf[off : off+size]
	for i := range p {
		p[i] = 0
	}
	if spec.Species == "" || spec.Species == "None" {
		return nil
	}

	id, err := data.SpeciesID(spec.Species)
	if err != nil {
		return err
	}
	base, err := data.SpeciesStats(spec.Species)
	if err != nil {
		return err
	}

	level := int(spec.Level)
	if level == 0 {
		level = 100
	}
	stats := computeStats(spec, base, level)
	if spec.Stats != nil {
		stats = *spec.Stats
	}
	writeStatTable(p[s.Pokemon.Stats:], s, stats)

	if len(spec.Moves) > MoveSlots {
		return fmt.Errorf("%w: %d moves, at most %d", ErrOutOfRange, len(spec.Moves), MoveSlots)
	}
	for i, name := range spec.Moves {
		moveID, err := data.MoveID(name)
		if err != nil {
			return err
		}
		pp := uint8(0)
		if moveID != 0 {
			basePP, err := data.MovePP(name)
			if err != nil {
				return err
			}
			pp = maxedPP(basePP)
			if spec.MovePP != nil {
				if i >= len(spec.MovePP) {
					return fmt.Errorf("%w: pp override missing for move slot %d", ErrOutOfRange, i+1)
				}
				pp = spec.MovePP[i]
			}
		}
		p[s.Pokemon.Moves+2*i] = moveID
		p[s.Pokemon.Moves+2*i+1] = pp
	}

	hp := stats.HP
	if spec.HP != nil {
		hp = *spec.HP
	}
	binary.LittleEndian.PutUint16(p[s.Pokemon.HP:], hp)
	p[s.Pokemon.Status] = spec.Status
	p[s.Pokemon.Species] = id

	typeNames := spec.Types
	if typeNames == nil {
		typeNames, err = data.SpeciesTypes(spec.Species)
		if err != nil {
			return err
		}
	}
	packed, err := packTypes(typeNames)
	if err != nil {
		return err
	}
	p[s.Pokemon.Types] = packed
	p[s.Pokemon.Level] = uint8(level)
	return nil
}

func writeStatTable(buf []byte, s *layout.Schema, t StatTable) {
	binary.LittleEndian.PutUint16(buf[s.Stats.HP:], t.HP)
	binary.LittleEndian.PutUint16(buf[s.Stats.Atk:], t.Atk)
	binary.LittleEndian.PutUint16(buf[s.Stats.Def:], t.Def)
	binary.LittleEndian.PutUint16(buf[s.Stats.Spe:], t.Spe)
	binary.LittleEndian.PutUint16(buf[s.Stats.Spc:], t.Spc)
}

func readStatTable(buf []byte, s *layout.Schema) StatTable {
	return StatTable{
		HP:  binary.LittleEndian.Uint16(buf[s.Stats.HP:]),
		Atk: binary.LittleEndian.Uint16(buf[s.Stats.Atk:]),
		Def: binary.LittleEndian.Uint16(buf[s.Stats.Def:]),
		Spe: binary.LittleEndian.Uint16(buf[s.Stats.Spe:]),
		Spc: binary.LittleEndian.Uint16(buf[s.Stats.Spc:]),
	}
}

// packTypes packs one or two type names into the shared type byte. A
// single-typed pokemon stores its type in both nibbles.
func packTypes(names []string) (byte, error) {
	if len(names) == 0 || len(names) > 2 {
		return 0, fmt.Errorf("%w: %d types, want 1 or 2", ErrOutOfRange, len(names))
	}
	t1, err := data.TypeID(names[0])
	if err != nil {
		return 0, err
	}
	t2 := t1
	if len(names) == 2 {
		t2, err = data.TypeID(names[1])
		if err != nil {
			return 0, err
		}
	}
	return bitpack.PackNibbles(t1, t2)
}

func unpackTypes(b byte) ([]string, error) {
	t1, t2 := bitpack.UnpackNibbles(b)
	n1, err := data.TypeName(t1)
	if err != nil {
		return nil, err
	}
	if t2 == t1 {
		return []string{n1}, nil
	}
	n2, err := data.TypeName(t2)
	if err != nil {
		return nil, err
	}
	return []string{n1, n2}, nil
}

func readMoves(buf []byte) []MoveSlot {
	slots := make([]MoveSlot, 0, MoveSlots)
	for i := 0; i < MoveSlots; i++ {
		id := buf[2*i]
		name := "None"
		if id != 0 {
			n, err := data.MoveName(id)
			if err == nil {
				name = n
			}
		}
		slots = append(slots, MoveSlot{Move: name, PP: buf[2*i+1]})
	}
	return slots
}

func writeMoves(buf []byte, slots []MoveSlot) error {
	if len(slots) > MoveSlots {
		return fmt.Errorf("%w: %d move slots, at most %d", ErrOutOfRange, len(slots), MoveSlots)
	}
	for i := 0; i < MoveSlots; i++ {
		if i >= len(slots) {
			buf[2*i], buf[2*i+1] = 0, 0
			continue
		}
		id, err := data.MoveID(slots[i].Move)
		if err != nil {
			return err
		}
		buf[2*i] = id
		buf[2*i+1] = slots[i].PP
	}
	return nil
}

// Pokemon is a view over one party member's region of the battle
// buffer. Mutations write straight through to the buffer.
type Pokemon struct {
	buf []byte
	s   *layout.Schema
}

func (p Pokemon) Stats() StatTable {
	return readStatTable(p.buf[p.s.Pokemon.Stats:], p.s)
}

func (p Pokemon) SetStats(t StatTable) {
	writeStatTable(p.buf[p.s.Pokemon.Stats:], p.s, t)
}

func (p Pokemon) Moves() []MoveSlot {
	return readMoves(p.buf[p.s.Pokemon.Moves:])
}

func (p Pokemon) SetMoves(slots []MoveSlot) error {
	return writeMoves(p.buf[p.s.Pokemon.Moves:], slots)
}

func (p Pokemon) HP() uint16 {
	return binary.LittleEndian.Uint16(p.buf[p.s.Pokemon.HP:])
}

func (p Pokemon) SetHP(hp uint16) {
	binary.LittleEndian.PutUint16(p.buf[p.s.Pokemon.HP:], hp)
}

func (p Pokemon) Status() uint8 {
	return p.buf[p.s.Pokemon.Status]
}

func (p Pokemon) SetStatus(status uint8) {
	p.buf[p.s.Pokemon.Status] = status
}

func (p Pokemon) SpeciesID() uint8 {
	return p.buf[p.s.Pokemon.Species]
}

func (p Pokemon) Species() (string, error) {
	return data.SpeciesName(p.SpeciesID())
}

func (p Pokemon) SetSpecies(name string) error {
	id, err := data.SpeciesID(name)
	if err != nil {
		return err
	}
	p.buf[p.s.Pokemon.Species] = id
	return nil
}

func (p Pokemon) Types() ([]string, error) {
	return unpackTypes(p.buf[p.s.Pokemon.Types])
}

func (p Pokemon) SetTypes(names []string) error {
	packed, err := packTypes(names)
	if err != nil {
		return err
	}
	p.buf[p.s.Pokemon.Types] = packed
	return nil
}

func (p Pokemon) Level() uint8 {
	return p.buf[p.s.Pokemon.Level]
}

func (p Pokemon) SetLevel(level uint8) {
	p.buf[p.s.Pokemon.Level] = level
}

// ActivePokemon is a view over the in-battle pokemon region of a side,
// including boosts and volatiles.
type ActivePokemon struct {
	buf []byte
	s   *layout.Schema
}

func (a ActivePokemon) Stats() StatTable {
	return readStatTable(a.buf[a.s.Active.Stats:], a.s)
}

func (a ActivePokemon) SetStats(t StatTable) {
	writeStatTable(a.buf[a.s.Active.Stats:], a.s, t)
}

func (a ActivePokemon) SpeciesID() uint8 {
	return a.buf[a.s.Active.Species]
}

func (a ActivePokemon) Species() (string, error) {
	return data.SpeciesName(a.SpeciesID())
}

func (a ActivePokemon) SetSpecies(name string) error {
	id, err := data.SpeciesID(name)
	if err != nil {
		return err
	}
	a.buf[a.s.Active.Species] = id
	return nil
}

func (a ActivePokemon) Types() ([]string, error) {
	return unpackTypes(a.buf[a.s.Active.Types])
}

func (a ActivePokemon) SetTypes(names []string) error {
	packed, err := packTypes(names)
	if err != nil {
		return err
	}
	a.buf[a.s.Active.Types] = packed
	return nil
}

func (a ActivePokemon) Moves() []MoveSlot {
	return readMoves(a.buf[a.s.Active.Moves:])
}

func (a ActivePokemon) SetMoves(slots []MoveSlot) error {
	return writeMoves(a.buf[a.s.Active.Moves:], slots)
}

func (a ActivePokemon) boostsRegion() []byte {
	return a.buf[a.s.Active.Boosts : a.s.Active.Boosts+a.s.Sizes.Boosts]
}

func (a ActivePokemon) boost(bit int) int8 {
	byteOff, bitOff := layout.SplitBit(bit)
	raw := bitpack.ExtractBits(a.boostsRegion()[byteOff], bitOff, 4)
	if raw >= 8 {
		return int8(raw) - 16
	}
	return int8(raw)
}

func (a ActivePokemon) setBoost(bit int, v int8) {
	byteOff, bitOff := layout.SplitBit(bit)
	region := a.boostsRegion()
	// Range was checked by SetBoosts; the masked byte is the two's
	// complement nibble.
	b, err := bitpack.InsertBits(region[byteOff], uint8(v)&0xF, bitOff, 4)
	if err != nil {
		panic(err)
	}
	region[byteOff] = b
}

func (a ActivePokemon) Boosts() Boosts {
	o := a.s.Boosts
	return Boosts{
		Atk:      a.boost(o.Atk),
		Def:      a.boost(o.Def),
		Spe:      a.boost(o.Spe),
		Spc:      a.boost(o.Spc),
		Accuracy: a.boost(o.Accuracy),
		Evasion:  a.boost(o.Evasion),
	}
}

func (a ActivePokemon) SetBoosts(b Boosts) error {
	for _, v := range []int8{b.Atk, b.Def, b.Spe, b.Spc, b.Accuracy, b.Evasion} {
		if v < -6 || v > 6 {
			return fmt.Errorf("%w: boost stage %d outside [-6, 6]", ErrOutOfRange, v)
		}
	}
	o := a.s.Boosts
	a.setBoost(o.Atk, b.Atk)
	a.setBoost(o.Def, b.Def)
	a.setBoost(o.Spe, b.Spe)
	a.setBoost(o.Spc, b.Spc)
	a.setBoost(o.Accuracy, b.Accuracy)
	a.setBoost(o.Evasion, b.Evasion)
	return nil
}

func (a ActivePokemon) volatilesRegion() []byte {
	return a.buf[a.s.Active.Volatiles : a.s.Active.Volatiles+a.s.Sizes.Volatiles]
}

func (a ActivePokemon) Volatile(f VolatileFlag) bool {
	byteOff, bitOff := layout.SplitBit(f.bit(a.s))
	return bitpack.ExtractBits(a.volatilesRegion()[byteOff], bitOff, 1) == 1
}

func (a ActivePokemon) SetVolatile(f VolatileFlag, on bool) {
	byteOff, bitOff := layout.SplitBit(f.bit(a.s))
	region := a.volatilesRegion()
	v := uint8(0)
	if on {
		v = 1
	}
	b, err := bitpack.InsertBits(region[byteOff], v, bitOff, 1)
	if err != nil {
		panic(err)
	}
	region[byteOff] = b
}

// Every packed volatile counter fits within one byte; the layout
// validator guarantees the wider fields are byte-aligned.
func (a ActivePokemon) counter(bit, length int) uint8 {
	byteOff, bitOff := layout.SplitBit(bit)
	return bitpack.ExtractBits(a.volatilesRegion()[byteOff], bitOff, length)
}

func (a ActivePokemon) setCounter(bit, length int, v uint8) error {
	if v >= 1<<length {
		return fmt.Errorf("%w: %d does not fit in %d bits", ErrOutOfRange, v, length)
	}
	byteOff, bitOff := layout.SplitBit(bit)
	region := a.volatilesRegion()
	b, err := bitpack.InsertBits(region[byteOff], v, bitOff, length)
	if err != nil {
		return err
	}
	region[byteOff] = b
	return nil
}

func (a ActivePokemon) ConfusionTurns() uint8 {
	return a.counter(a.s.Volatiles.ConfusionTurns, 3)
}

func (a ActivePokemon) SetConfusionTurns(v uint8) error {
	return a.setCounter(a.s.Volatiles.ConfusionTurns, 3, v)
}

func (a ActivePokemon) AttacksLeft() uint8 {
	return a.counter(a.s.Volatiles.Attacks, 3)
}

func (a ActivePokemon) SetAttacksLeft(v uint8) error {
	return a.setCounter(a.s.Volatiles.Attacks, 3, v)
}

// VolatileState is the accumulated Bide damage or Transform overwrite
// state.
func (a ActivePokemon) VolatileState() uint16 {
	byteOff, _ := layout.SplitBit(a.s.Volatiles.State)
	return binary.LittleEndian.Uint16(a.volatilesRegion()[byteOff:])
}

func (a ActivePokemon) SetVolatileState(v uint16) {
	byteOff, _ := layout.SplitBit(a.s.Volatiles.State)
	binary.LittleEndian.PutUint16(a.volatilesRegion()[byteOff:], v)
}

func (a ActivePokemon) SubstituteHP() uint8 {
	byteOff, _ := layout.SplitBit(a.s.Volatiles.SubstituteHP)
	return a.volatilesRegion()[byteOff]
}

func (a ActivePokemon) SetSubstituteHP(v uint8) {
	byteOff, _ := layout.SplitBit(a.s.Volatiles.SubstituteHP)
	a.volatilesRegion()[byteOff] = v
}

// TransformTarget is the player and one-based party slot this pokemon
// is transformed into, or slot 0 when not transformed.
func (a ActivePokemon) TransformTarget() (Player, int) {
	v := a.counter(a.s.Volatiles.TransformTarget, 4)
	return Player(v >> 3), int(v & 0b111)
}

func (a ActivePokemon) SetTransformTarget(p Player, slot int) error {
	if slot < 0 || slot > TeamSize {
		return fmt.Errorf("%w: transform slot %d outside [0, %d]", ErrOutOfRange, slot, TeamSize)
	}
	return a.setCounter(a.s.Volatiles.TransformTarget, 4, uint8(p)<<3|uint8(slot))
}

func (a ActivePokemon) DisableDuration() uint8 {
	return a.counter(a.s.Volatiles.DisableDuration, 4)
}

func (a ActivePokemon) SetDisableDuration(v uint8) error {
	return a.setCounter(a.s.Volatiles.DisableDuration, 4, v)
}

func (a ActivePokemon) DisabledMove() uint8 {
	return a.counter(a.s.Volatiles.DisableMove, 3)
}

func (a ActivePokemon) SetDisabledMove(slot uint8) error {
	return a.setCounter(a.s.Volatiles.DisableMove, 3, slot)
}

func (a ActivePokemon) ToxicCounter() uint8 {
	return a.counter(a.s.Volatiles.ToxicCounter, 5)
}

func (a ActivePokemon) SetToxicCounter(v uint8) error {
	return a.setCounter(a.s.Volatiles.ToxicCounter, 5, v)
}

// Side is a view over one player's half of the battle buffer.
type Side struct {
	buf []byte
	s   *layout.Schema
}

// Pokemon returns the view of the party member in the given one-based
// slot.
func (sd Side) Pokemon(slot int) (Pokemon, error) {
	if slot < 1 || slot > TeamSize {
		return Pokemon{}, fmt.Errorf("%w: party slot %d outside [1, %d]", ErrOutOfRange, slot, TeamSize)
	}
	off := sd.s.Side.Pokemon + (slot-1)*sd.s.Sizes.Pokemon
	return Pokemon{buf: sd.buf[off : off+sd.s.Sizes.Pokemon], s: sd.s}, nil
}

func (sd Side) Active() ActivePokemon {
	off := sd.s.Side.Active
	return ActivePokemon{buf: sd.buf[off : off+sd.s.Sizes.ActivePokemon], s: sd.s}
}

// Order returns the current party order as one-based team indexes. A
// zero entry is an empty slot.
func (sd Side) Order() [TeamSize]uint8 {
	var order [TeamSize]uint8
	copy(order[:], sd.buf[sd.s.Side.Order:])
	return order
}

func (sd Side) SetOrder(order [TeamSize]uint8) {
	copy(sd.buf[sd.s.Side.Order:], order[:])
}

func (sd Side) LastSelectedMove() (string, error) {
	return data.MoveName(sd.buf[sd.s.Side.LastSelectedMove])
}

func (sd Side) SetLastSelectedMove(name string) error {
	id, err := data.MoveID(name)
	if err != nil {
		return err
	}
	sd.buf[sd.s.Side.LastSelectedMove] = id
	return nil
}

func (sd Side) LastUsedMove() (string, error) {
	return data.MoveName(sd.buf[sd.s.Side.LastUsedMove])
}

func (sd Side) SetLastUsedMove(name string) error {
	id, err := data.MoveID(name)
	if err != nil {
		return err
	}
	sd.buf[sd.s.Side.LastUsedMove] = id
	return nil
}
