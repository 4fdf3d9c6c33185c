package game

import (
	"errors"
	"testing"

	"pkmn-bridge/data"
	"pkmn-bridge/layout"
)

func TestCalcStat(t *testing.T) {
	// Gengar at level 100 with max DVs and stat experience.
	cases := []struct {
		name string
		base int
		isHP bool
		want uint16
	}{
		{"hp", 60, true, 323},
		{"atk", 65, false, 228},
		{"def", 60, false, 218},
		{"spe", 110, false, 318},
		{"spc", 130, false, 358},
	}
	for _, c := range cases {
		if got := CalcStat(c.base, 15, 65535, 100, c.isHP); got != c.want {
			t.Errorf("CalcStat(%s): got %d, want %d", c.name, got, c.want)
		}
	}
}

func TestCalcStatLowLevel(t *testing.T) {
	if got := CalcStat(65, 15, 65535, 50, false); got != 116 {
		t.Errorf("atk at level 50: got %d, want 116", got)
	}
	if got := CalcStat(60, 15, 65535, 50, true); got != 166 {
		t.Errorf("hp at level 50: got %d, want 166", got)
	}
}

func newTestBattle(t *testing.T, p1, p2 []PokemonSpec) *Battle {
	t.Helper()
	b, err := NewBattle(nil, p1, p2, 0)
	if err != nil {
		t.Fatalf("NewBattle: %v", err)
	}
	return b
}

func gengarSpec() PokemonSpec {
	return PokemonSpec{
		Species: "Gengar",
		Moves:   []string{"Psychic", "Night Shade", "Confuse Ray", "Hypnosis"},
	}
}

func TestWritePokemonDefaults(t *testing.T) {
	b := newTestBattle(t, []PokemonSpec{gengarSpec()}, []PokemonSpec{{Species: "Pikachu", Moves: []string{"Thunderbolt"}}})
	p, err := b.Side(P1).Pokemon(1)
	if err != nil {
		t.Fatal(err)
	}

	want := StatTable{HP: 323, Atk: 228, Def: 218, Spe: 318, Spc: 358}
	if got := p.Stats(); got != want {
		t.Errorf("stats: got %+v, want %+v", got, want)
	}
	if got := p.HP(); got != 323 {
		t.Errorf("hp: got %d, want full 323", got)
	}
	if got := p.Level(); got != 100 {
		t.Errorf("level: got %d, want 100", got)
	}
	if got := p.Status(); got != 0 {
		t.Errorf("status: got %d, want 0", got)
	}
	if got := p.SpeciesID(); got != 94 {
		t.Errorf("species id: got %d, want 94", got)
	}
	types, err := p.Types()
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 2 || types[0] != "Ghost" || types[1] != "Poison" {
		t.Errorf("types: got %v, want [Ghost Poison]", types)
	}

	moves := p.Moves()
	if moves[0].Move != "Psychic" || moves[0].PP != 16 {
		t.Errorf("slot 1: got %+v, want Psychic with 16 pp", moves[0])
	}
	if moves[3].Move != "Hypnosis" || moves[3].PP != 32 {
		t.Errorf("slot 4: got %+v, want Hypnosis with 32 pp", moves[3])
	}
}

func TestWritePokemonPPCap(t *testing.T) {
	buf := make([]byte, layout.Gen1().Sizes.Pokemon)
	spec := PokemonSpec{Species: "Gengar", Moves: []string{"Splash"}}
	if err := WritePokemon(buf, 0, spec); err != nil {
		t.Fatal(err)
	}
	p := Pokemon{buf: buf, s: layout.Gen1()}
	if got := p.Moves()[0].PP; got != 61 {
		t.Errorf("40 base pp: stored %d, want cap 61", got)
	}
}

func TestWritePokemonOverrides(t *testing.T) {
	hp := uint16(189)
	spec := PokemonSpec{
		Species: "Charizard",
		Moves:   []string{"Tackle"},
		Level:   73,
		HP:      &hp,
		Status:  0x88, // toxic
		MovePP:  []uint8{5},
		Types:   []string{"Dragon"},
	}
	buf := make([]byte, layout.Gen1().Sizes.Pokemon)
	if err := WritePokemon(buf, 0, spec); err != nil {
		t.Fatal(err)
	}
	p := Pokemon{buf: buf, s: layout.Gen1()}
	if p.Level() != 73 {
		t.Errorf("level: got %d, want 73", p.Level())
	}
	if p.HP() != 189 {
		t.Errorf("hp: got %d, want 189", p.HP())
	}
	if p.Status() != 0x88 {
		t.Errorf("status: got %#x, want 0x88", p.Status())
	}
	if p.Moves()[0].PP != 5 {
		t.Errorf("pp override: got %d, want 5", p.Moves()[0].PP)
	}
	types, err := p.Types()
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 1 || types[0] != "Dragon" {
		t.Errorf("types: got %v, want [Dragon]", types)
	}
}

func TestWritePokemonEmptySlot(t *testing.T) {
	buf := make([]byte, layout.Gen1().Sizes.Pokemon)
	for i := range buf {
		buf[i] = 0xAA
	}
	if err := WritePokemon(buf, 0, PokemonSpec{}); err != nil {
		t.Fatal(err)
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("byte %d: got %#x, want zeroed slot", i, v)
		}
	}
}

func TestWritePokemonErrors(t *testing.T) {
	buf := make([]byte, layout.Gen1().Sizes.Pokemon)
	if err := WritePokemon(buf, 0, PokemonSpec{Species: "MissingNo"}); !errors.Is(err, data.ErrUnknownName) {
		t.Errorf("unknown species: got %v, want ErrUnknownName", err)
	}
	if err := WritePokemon(buf, 0, PokemonSpec{Species: "Gengar", Moves: []string{"Fly", "Cut", "Surf", "Strength", "Flash"}}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("five moves: got %v, want ErrOutOfRange", err)
	}
	if err := WritePokemon(buf, 4, gengarSpec()); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("region past end: got %v, want ErrOutOfRange", err)
	}
}

func TestBoostsRoundTrip(t *testing.T) {
	b := newTestBattle(t, []PokemonSpec{gengarSpec()}, []PokemonSpec{gengarSpec()})
	active := b.Side(P1).Active()

	want := Boosts{Atk: -6, Def: 6, Spe: -1, Spc: 2, Accuracy: 0, Evasion: -3}
	if err := active.SetBoosts(want); err != nil {
		t.Fatal(err)
	}
	if got := active.Boosts(); got != want {
		t.Errorf("boosts: got %+v, want %+v", got, want)
	}

	if err := active.SetBoosts(Boosts{Atk: 7}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("stage 7: got %v, want ErrOutOfRange", err)
	}
	if err := active.SetBoosts(Boosts{Evasion: -7}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("stage -7: got %v, want ErrOutOfRange", err)
	}
	// Failed writes must not disturb the stored stages.
	if got := active.Boosts(); got != want {
		t.Errorf("boosts after rejected write: got %+v, want %+v", got, want)
	}
}

func TestVolatileFlags(t *testing.T) {
	b := newTestBattle(t, []PokemonSpec{gengarSpec()}, []PokemonSpec{gengarSpec()})
	active := b.Side(P2).Active()

	flags := []VolatileFlag{
		VolatileBide, VolatileThrashing, VolatileMultiHit, VolatileFlinch,
		VolatileCharging, VolatileBinding, VolatileInvulnerable, VolatileConfusion,
		VolatileMist, VolatileFocusEnergy, VolatileSubstitute, VolatileRecharging,
		VolatileRage, VolatileLeechSeed, VolatileToxic, VolatileLightScreen,
		VolatileReflect, VolatileTransform,
	}
	for _, f := range flags {
		if active.Volatile(f) {
			t.Fatalf("flag %d set on fresh battle", f)
		}
	}

	active.SetVolatile(VolatileLeechSeed, true)
	for _, f := range flags {
		want := f == VolatileLeechSeed
		if got := active.Volatile(f); got != want {
			t.Errorf("flag %d after setting leech seed: got %v, want %v", f, got, want)
		}
	}
	active.SetVolatile(VolatileLeechSeed, false)
	if active.Volatile(VolatileLeechSeed) {
		t.Error("leech seed still set after clearing")
	}
}

func TestVolatileCounters(t *testing.T) {
	b := newTestBattle(t, []PokemonSpec{gengarSpec()}, []PokemonSpec{gengarSpec()})
	active := b.Side(P1).Active()

	if err := active.SetConfusionTurns(5); err != nil {
		t.Fatal(err)
	}
	if err := active.SetAttacksLeft(3); err != nil {
		t.Fatal(err)
	}
	active.SetVolatileState(0xBEEF)
	active.SetSubstituteHP(44)
	if err := active.SetDisableDuration(9); err != nil {
		t.Fatal(err)
	}
	if err := active.SetDisabledMove(2); err != nil {
		t.Fatal(err)
	}
	if err := active.SetToxicCounter(13); err != nil {
		t.Fatal(err)
	}

	if got := active.ConfusionTurns(); got != 5 {
		t.Errorf("confusion turns: got %d, want 5", got)
	}
	if got := active.AttacksLeft(); got != 3 {
		t.Errorf("attacks left: got %d, want 3", got)
	}
	if got := active.VolatileState(); got != 0xBEEF {
		t.Errorf("state: got %#x, want 0xbeef", got)
	}
	if got := active.SubstituteHP(); got != 44 {
		t.Errorf("substitute hp: got %d, want 44", got)
	}
	if got := active.DisableDuration(); got != 9 {
		t.Errorf("disable duration: got %d, want 9", got)
	}
	if got := active.DisabledMove(); got != 2 {
		t.Errorf("disabled move: got %d, want 2", got)
	}
	if got := active.ToxicCounter(); got != 13 {
		t.Errorf("toxic counter: got %d, want 13", got)
	}

	if err := active.SetConfusionTurns(8); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("confusion 8: got %v, want ErrOutOfRange", err)
	}
	if err := active.SetToxicCounter(32); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("toxic 32: got %v, want ErrOutOfRange", err)
	}
}

func TestTransformTarget(t *testing.T) {
	b := newTestBattle(t, []PokemonSpec{gengarSpec()}, []PokemonSpec{gengarSpec()})
	active := b.Side(P1).Active()

	if err := active.SetTransformTarget(P2, 5); err != nil {
		t.Fatal(err)
	}
	player, slot := active.TransformTarget()
	if player != P2 || slot != 5 {
		t.Errorf("transform target: got %v slot %d, want p2 slot 5", player, slot)
	}
	if err := active.SetTransformTarget(P1, 7); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("slot 7: got %v, want ErrOutOfRange", err)
	}
}

func TestSideOrderAndLastMoves(t *testing.T) {
	b := newTestBattle(t,
		[]PokemonSpec{gengarSpec(), {Species: "Pikachu", Moves: []string{"Thunderbolt"}}},
		[]PokemonSpec{gengarSpec()})
	side := b.Side(P1)

	if got := side.Order(); got != [TeamSize]uint8{1, 2, 0, 0, 0, 0} {
		t.Errorf("initial order: got %v", got)
	}
	side.SetOrder([TeamSize]uint8{2, 1, 0, 0, 0, 0})
	if got := side.Order(); got != [TeamSize]uint8{2, 1, 0, 0, 0, 0} {
		t.Errorf("order after swap: got %v", got)
	}

	if err := side.SetLastSelectedMove("Psychic"); err != nil {
		t.Fatal(err)
	}
	if err := side.SetLastUsedMove("Night Shade"); err != nil {
		t.Fatal(err)
	}
	if got, _ := side.LastSelectedMove(); got != "Psychic" {
		t.Errorf("last selected: got %q", got)
	}
	if got, _ := side.LastUsedMove(); got != "Night Shade" {
		t.Errorf("last used: got %q", got)
	}
	if got, _ := b.Side(P2).LastUsedMove(); got != "None" {
		t.Errorf("p2 last used: got %q, want None", got)
	}
}

func TestActiveStatsAndMoves(t *testing.T) {
	b := newTestBattle(t, []PokemonSpec{gengarSpec()}, []PokemonSpec{gengarSpec()})
	active := b.Side(P1).Active()

	stats := StatTable{HP: 323, Atk: 228, Def: 218, Spe: 318, Spc: 358}
	active.SetStats(stats)
	if got := active.Stats(); got != stats {
		t.Errorf("active stats: got %+v", got)
	}
	if err := active.SetSpecies("Ditto"); err != nil {
		t.Fatal(err)
	}
	name, err := active.Species()
	if err != nil || name != "Ditto" {
		t.Errorf("active species: got %q, %v", name, err)
	}
	if err := active.SetMoves([]MoveSlot{{Move: "Pound", PP: 56}}); err != nil {
		t.Fatal(err)
	}
	moves := active.Moves()
	if moves[0].Move != "Pound" || moves[0].PP != 56 {
		t.Errorf("active move 1: got %+v", moves[0])
	}
	if moves[1].Move != "None" || moves[1].PP != 0 {
		t.Errorf("active move 2: got %+v, want cleared", moves[1])
	}
}
