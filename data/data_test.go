package data

import (
	"errors"
	"testing"
)

func TestTableSizes(t *testing.T) {
	if got := NumSpecies(); got != 151 {
		t.Errorf("NumSpecies() = %d, want 151", got)
	}
	if got := NumMoves(); got != 165 {
		t.Errorf("NumMoves() = %d, want 165", got)
	}
	if got := NumTypes(); got != 15 {
		t.Errorf("NumTypes() = %d, want 15", got)
	}
}

func TestSpeciesLookups(t *testing.T) {
	stats, err := SpeciesStats("Bulbasaur")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Spc != 65 {
		t.Errorf("Bulbasaur spc = %d, want 65", stats.Spc)
	}

	types, err := SpeciesTypes("Bulbasaur")
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 2 || types[0] != "Grass" || types[1] != "Poison" {
		t.Errorf("Bulbasaur types = %v", types)
	}

	id, err := SpeciesID("Gengar")
	if err != nil {
		t.Fatal(err)
	}
	if id != 94 {
		t.Errorf("SpeciesID(Gengar) = %d, want 94", id)
	}
	name, err := SpeciesName(94)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Gengar" {
		t.Errorf("SpeciesName(94) = %q, want Gengar", name)
	}

	if id, _ := SpeciesID("None"); id != 0 {
		t.Errorf("SpeciesID(None) = %d, want 0", id)
	}
	if _, err := SpeciesID("Missingno"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("SpeciesID(Missingno) error = %v, want ErrUnknownName", err)
	}
}

func TestNameNormalization(t *testing.T) {
	// Lookups are case-insensitive and ignore diacritics.
	for _, name := range []string{"farfetch'd", "FARFETCH'D", "Farfétch'd"} {
		if _, err := SpeciesID(name); err != nil {
			t.Errorf("SpeciesID(%q): %v", name, err)
		}
	}
}

func TestMoveLookups(t *testing.T) {
	pp, err := MovePP("Tackle")
	if err != nil {
		t.Fatal(err)
	}
	if pp != 35 {
		t.Errorf("MovePP(Tackle) = %d, want 35", pp)
	}

	id, err := MoveID("Psychic")
	if err != nil {
		t.Fatal(err)
	}
	if id != 94 {
		t.Errorf("MoveID(Psychic) = %d, want 94", id)
	}
	name, err := MoveName(94)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Psychic" {
		t.Errorf("MoveName(94) = %q, want Psychic", name)
	}

	if pp, _ := MovePP("None"); pp != 0 {
		t.Errorf("MovePP(None) = %d, want 0", pp)
	}
}

func TestTypeLookups(t *testing.T) {
	id, err := TypeID("Normal")
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 {
		t.Errorf("TypeID(Normal) = %d, want 0", id)
	}
	name, err := TypeName(14)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Dragon" {
		t.Errorf("TypeName(14) = %q, want Dragon", name)
	}
}

func TestProtocolTables(t *testing.T) {
	name, err := MessageName(3)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Move" {
		t.Errorf("MessageName(3) = %q, want Move", name)
	}
	if name, _ := MessageName(6); name != "Faint" {
		t.Errorf("MessageName(6) = %q, want Faint", name)
	}
	if got := len(Reasons("Cant")); got != 8 {
		t.Errorf("len(Reasons(Cant)) = %d, want 8", got)
	}
	if Reasons("Turn") != nil {
		t.Error("Reasons(Turn) should be nil")
	}
	if _, err := MessageName(200); !errors.Is(err, ErrUnknownName) {
		t.Errorf("MessageName(200) error = %v, want ErrUnknownName", err)
	}
}
