// Package layout holds the versioned byte/bit layout of the engine's
// battle state. The layout is an external contract: it is loaded once
// from the embedded document, validated, and never mutated. Every offset
// the codec uses comes from here so no accessor hand-computes addresses.
package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	_ "embed"
)

//go:embed gen1.json
var gen1JSON []byte

//go:embed layout.schema.json
var schemaJSON string

// Offsets in Boosts and Volatiles are bit offsets from the start of the
// block; everything else is a byte offset.
type Schema struct {
	Version   int
	Sizes     Sizes
	Battle    BattleOffsets
	Side      SideOffsets
	Pokemon   PokemonOffsets
	Active    ActiveOffsets
	Stats     StatsOffsets
	Boosts    BoostsOffsets
	Volatiles VolatilesOffsets

	sizes   map[string]int
	offsets map[string]map[string]int
}

type Sizes struct {
	Battle        int `json:"Battle"`
	Side          int `json:"Side"`
	Pokemon       int `json:"Pokemon"`
	ActivePokemon int `json:"ActivePokemon"`
	Stats         int `json:"Stats"`
	Boosts        int `json:"Boosts"`
	Volatiles     int `json:"Volatiles"`
}

type BattleOffsets struct {
	Sides               int `json:"sides"`
	Turn                int `json:"turn"`
	LastDamage          int `json:"last_damage"`
	LastSelectedIndexes int `json:"last_selected_indexes"`
	RNG                 int `json:"rng"`
}

type SideOffsets struct {
	Pokemon          int `json:"pokemon"`
	Active           int `json:"active"`
	Order            int `json:"order"`
	LastSelectedMove int `json:"last_selected_move"`
	LastUsedMove     int `json:"last_used_move"`
}

type PokemonOffsets struct {
	Stats   int `json:"stats"`
	Moves   int `json:"moves"`
	HP      int `json:"hp"`
	Status  int `json:"status"`
	Species int `json:"species"`
	Types   int `json:"types"`
	Level   int `json:"level"`
}

type ActiveOffsets struct {
	Stats     int `json:"stats"`
	Species   int `json:"species"`
	Types     int `json:"types"`
	Boosts    int `json:"boosts"`
	Volatiles int `json:"volatiles"`
	Moves     int `json:"moves"`
}

type StatsOffsets struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	Spe int `json:"spe"`
	Spc int `json:"spc"`
}

// Bit offsets of the six signed 4-bit stages; the block's final byte is
// padding.
type BoostsOffsets struct {
	Atk      int `json:"atk"`
	Def      int `json:"def"`
	Spe      int `json:"spe"`
	Spc      int `json:"spc"`
	Accuracy int `json:"accuracy"`
	Evasion  int `json:"evasion"`
}

// Bit offsets within the 8-byte volatiles block: 18 single-bit status
// flags followed by the packed counters.
type VolatilesOffsets struct {
	Bide         int `json:"Bide"`
	Thrashing    int `json:"Thrashing"`
	MultiHit     int `json:"MultiHit"`
	Flinch       int `json:"Flinch"`
	Charging     int `json:"Charging"`
	Binding      int `json:"Binding"`
	Invulnerable int `json:"Invulnerable"`
	Confusion    int `json:"Confusion"`
	Mist         int `json:"Mist"`
	FocusEnergy  int `json:"FocusEnergy"`
	Substitute   int `json:"Substitute"`
	Recharging   int `json:"Recharging"`
	Rage         int `json:"Rage"`
	LeechSeed    int `json:"LeechSeed"`
	Toxic        int `json:"Toxic"`
	LightScreen  int `json:"LightScreen"`
	Reflect      int `json:"Reflect"`
	Transform    int `json:"Transform"`

	ConfusionTurns  int `json:"confusion"`
	Attacks         int `json:"attacks"`
	State           int `json:"state"`
	SubstituteHP    int `json:"substitute"`
	TransformTarget int `json:"transform"`
	DisableDuration int `json:"disable_duration"`
	DisableMove     int `json:"disable_move"`
	ToxicCounter    int `json:"toxic"`
}

type document struct {
	Version int                       `json:"version"`
	Sizes   Sizes                     `json:"sizes"`
	Offsets map[string]map[string]int `json:"offsets"`
}

var (
	gen1     *Schema
	gen1Once sync.Once
)

// Gen1 returns the process-wide Gen-1 layout. The embedded document is
// parsed and validated on first use; an inconsistent layout is a build
// defect, so any failure panics.
func Gen1() *Schema {
	gen1Once.Do(func() {
		s, err := Load(gen1JSON)
		if err != nil {
			panic(fmt.Sprintf("layout: embedded gen1 layout invalid: %v", err))
		}
		gen1 = s
	})
	return gen1
}

// Load parses and validates a layout document.
func Load(data []byte) (*Schema, error) {
	if err := validateShape(data); err != nil {
		return nil, fmt.Errorf("layout document rejected: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	s := &Schema{
		Version: doc.Version,
		Sizes:   doc.Sizes,
		offsets: doc.Offsets,
		sizes: map[string]int{
			"Battle":        doc.Sizes.Battle,
			"Side":          doc.Sizes.Side,
			"Pokemon":       doc.Sizes.Pokemon,
			"ActivePokemon": doc.Sizes.ActivePokemon,
			"Stats":         doc.Sizes.Stats,
			"Boosts":        doc.Sizes.Boosts,
			"Volatiles":     doc.Sizes.Volatiles,
		},
	}
	for entity, dst := range map[string]any{
		"Battle":        &s.Battle,
		"Side":          &s.Side,
		"Pokemon":       &s.Pokemon,
		"ActivePokemon": &s.Active,
		"Stats":         &s.Stats,
		"Boosts":        &s.Boosts,
		"Volatiles":     &s.Volatiles,
	} {
		raw, err := json.Marshal(doc.Offsets[entity])
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("offsets for %s: %w", entity, err)
		}
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func validateShape(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("layout.schema.json", bytes.NewReader([]byte(schemaJSON))); err != nil {
		return err
	}
	schema, err := compiler.Compile("layout.schema.json")
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}

// Size returns the byte size of an entity. Unknown entities panic: the
// set of entities is fixed by the contract.
func (s *Schema) Size(entity string) int {
	n, ok := s.sizes[entity]
	if !ok {
		panic("layout: unknown entity " + entity)
	}
	return n
}

// Offset returns the offset of a field within an entity, in bytes, or
// in bits for the Boosts and Volatiles entities.
func (s *Schema) Offset(entity, field string) int {
	fields, ok := s.offsets[entity]
	if !ok {
		panic("layout: unknown entity " + entity)
	}
	n, ok := fields[field]
	if !ok {
		panic("layout: unknown field " + entity + "." + field)
	}
	return n
}

// SplitBit converts a bit offset within a block to the byte index and
// the bit index inside that byte.
func SplitBit(bit int) (byteOff, bitOff int) {
	return bit / 8, bit % 8
}

type span struct {
	name  string
	start int
	width int
}

// validate checks the arithmetic invariants: fields within an entity
// are monotonic and non-overlapping, every entity is fully covered, and
// the Side and Battle sizes are the sums of their parts.
func (s *Schema) validate() error {
	sz := s.Sizes

	byteEntities := []struct {
		name  string
		size  int
		spans []span
	}{
		{"Stats", sz.Stats, []span{
			{"hp", s.Stats.HP, 2}, {"atk", s.Stats.Atk, 2}, {"def", s.Stats.Def, 2},
			{"spe", s.Stats.Spe, 2}, {"spc", s.Stats.Spc, 2},
		}},
		{"Pokemon", sz.Pokemon, []span{
			{"stats", s.Pokemon.Stats, sz.Stats}, {"moves", s.Pokemon.Moves, 8},
			{"hp", s.Pokemon.HP, 2}, {"status", s.Pokemon.Status, 1},
			{"species", s.Pokemon.Species, 1}, {"types", s.Pokemon.Types, 1},
			{"level", s.Pokemon.Level, 1},
		}},
		{"ActivePokemon", sz.ActivePokemon, []span{
			{"stats", s.Active.Stats, sz.Stats}, {"species", s.Active.Species, 1},
			{"types", s.Active.Types, 1}, {"boosts", s.Active.Boosts, sz.Boosts},
			{"volatiles", s.Active.Volatiles, sz.Volatiles}, {"moves", s.Active.Moves, 8},
		}},
		{"Side", sz.Side, []span{
			{"pokemon", s.Side.Pokemon, 6 * sz.Pokemon}, {"active", s.Side.Active, sz.ActivePokemon},
			{"order", s.Side.Order, 6}, {"last_selected_move", s.Side.LastSelectedMove, 1},
			{"last_used_move", s.Side.LastUsedMove, 1},
		}},
		{"Battle", sz.Battle, []span{
			{"sides", s.Battle.Sides, 2 * sz.Side}, {"turn", s.Battle.Turn, 2},
			{"last_damage", s.Battle.LastDamage, 2},
			{"last_selected_indexes", s.Battle.LastSelectedIndexes, 4},
			{"rng", s.Battle.RNG, 8},
		}},
	}
	for _, e := range byteEntities {
		if err := checkSpans(e.name, e.spans, e.size); err != nil {
			return err
		}
	}

	boostSpans := []span{
		{"atk", s.Boosts.Atk, 4}, {"def", s.Boosts.Def, 4}, {"spe", s.Boosts.Spe, 4},
		{"spc", s.Boosts.Spc, 4}, {"accuracy", s.Boosts.Accuracy, 4}, {"evasion", s.Boosts.Evasion, 4},
	}
	// One trailing padding byte, so the stages must cover size-1 bytes.
	if err := checkSpans("Boosts", boostSpans, (sz.Boosts-1)*8); err != nil {
		return err
	}

	v := s.Volatiles
	volatileSpans := []span{
		{"Bide", v.Bide, 1}, {"Thrashing", v.Thrashing, 1}, {"MultiHit", v.MultiHit, 1},
		{"Flinch", v.Flinch, 1}, {"Charging", v.Charging, 1}, {"Binding", v.Binding, 1},
		{"Invulnerable", v.Invulnerable, 1}, {"Confusion", v.Confusion, 1},
		{"Mist", v.Mist, 1}, {"FocusEnergy", v.FocusEnergy, 1}, {"Substitute", v.Substitute, 1},
		{"Recharging", v.Recharging, 1}, {"Rage", v.Rage, 1}, {"LeechSeed", v.LeechSeed, 1},
		{"Toxic", v.Toxic, 1}, {"LightScreen", v.LightScreen, 1}, {"Reflect", v.Reflect, 1},
		{"Transform", v.Transform, 1},
		{"confusion", v.ConfusionTurns, 3}, {"attacks", v.Attacks, 3},
		{"state", v.State, 16}, {"substitute", v.SubstituteHP, 8},
		{"transform", v.TransformTarget, 4}, {"disable_duration", v.DisableDuration, 4},
		{"disable_move", v.DisableMove, 3}, {"toxic", v.ToxicCounter, 5},
	}
	if err := checkSpans("Volatiles", volatileSpans, sz.Volatiles*8); err != nil {
		return err
	}

	// Multi-byte volatile counters must be byte-aligned for the u16/u8
	// accessors.
	for _, f := range []span{{"state", v.State, 16}, {"substitute", v.SubstituteHP, 8}} {
		if f.start%8 != 0 {
			return fmt.Errorf("layout invariant broken: Volatiles.%s at bit %d is not byte-aligned", f.name, f.start)
		}
	}
	return nil
}

func checkSpans(entity string, spans []span, size int) error {
	end := 0
	for _, f := range spans {
		if f.start < end {
			return fmt.Errorf("layout invariant broken: %s.%s at %d overlaps previous field ending at %d",
				entity, f.name, f.start, end)
		}
		if f.start > end {
			return fmt.Errorf("layout invariant broken: %s has a gap before %s at %d", entity, f.name, f.start)
		}
		end = f.start + f.width
	}
	if end != size {
		return fmt.Errorf("layout invariant broken: %s fields cover %d of %d", entity, end, size)
	}
	return nil
}
