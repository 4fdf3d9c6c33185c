// Package data exposes the Gen-1 name/id tables the engine's binary
// formats index into: species, moves, types, and the protocol message
// and reason names. Everything is loaded once from the embedded JSON
// documents and immutable afterwards. Numeric ids are one-based list
// positions, id 0 being the "None" sentinel for species and moves.
package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	_ "embed"
)

//go:embed gen1.json
var gen1JSON []byte

//go:embed protocol.json
var protocolJSON []byte

// ErrUnknownName is returned for a species, move, or type name (or id)
// that is not in the tables. Caller error, never retried.
var ErrUnknownName = errors.New("unknown name")

// Stats is a Gen-1 base stat block. Gen 1 has a single Special stat.
type Stats struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	Spe int `json:"spe"`
	Spc int `json:"spc"`
}

type speciesEntry struct {
	Name  string   `json:"name"`
	Stats Stats    `json:"stats"`
	Types []string `json:"types"`
}

type moveEntry struct {
	Name string `json:"name"`
	PP   int    `json:"pp"`
}

type gen1Doc struct {
	Types   []string       `json:"types"`
	Species []speciesEntry `json:"species"`
	Moves   []moveEntry    `json:"moves"`
}

type tables struct {
	types     []string
	species   []speciesEntry
	moves     []moveEntry
	speciesID map[string]uint8
	moveID    map[string]uint8
	typeID    map[string]uint8

	messages []string
	reasons  map[string][]string
}

var (
	db     *tables
	dbOnce sync.Once
)

func load() *tables {
	dbOnce.Do(func() {
		var doc gen1Doc
		if err := json.Unmarshal(gen1JSON, &doc); err != nil {
			panic(fmt.Sprintf("data: embedded gen1 tables invalid: %v", err))
		}
		var proto map[string]json.RawMessage
		if err := json.Unmarshal(protocolJSON, &proto); err != nil {
			panic(fmt.Sprintf("data: embedded protocol tables invalid: %v", err))
		}

		t := &tables{
			types:     doc.Types,
			species:   doc.Species,
			moves:     doc.Moves,
			speciesID: make(map[string]uint8, len(doc.Species)+1),
			moveID:    make(map[string]uint8, len(doc.Moves)+1),
			typeID:    make(map[string]uint8, len(doc.Types)),
			reasons:   make(map[string][]string, len(proto)),
		}
		t.speciesID[nameKey("None")] = 0
		for i, s := range doc.Species {
			t.speciesID[nameKey(s.Name)] = uint8(i + 1)
		}
		t.moveID[nameKey("None")] = 0
		for i, m := range doc.Moves {
			t.moveID[nameKey(m.Name)] = uint8(i + 1)
		}
		for i, name := range doc.Types {
			t.typeID[nameKey(name)] = uint8(i)
		}

		for name, raw := range proto {
			if name == "ArgType" {
				if err := json.Unmarshal(raw, &t.messages); err != nil {
					panic(fmt.Sprintf("data: protocol ArgType invalid: %v", err))
				}
				continue
			}
			var reasons []string
			if err := json.Unmarshal(raw, &reasons); err != nil {
				panic(fmt.Sprintf("data: protocol reasons for %s invalid: %v", name, err))
			}
			t.reasons[name] = reasons
		}
		db = t
	})
	return db
}

// nameKey normalizes a name for lookup: lowercased with diacritics
// stripped, so "Pokémon"-style spellings still resolve.
func nameKey(name string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		stripped = name
	}
	return strings.ToLower(stripped)
}

// SpeciesID resolves a species name to its engine id.
func SpeciesID(name string) (uint8, error) {
	id, ok := load().speciesID[nameKey(name)]
	if !ok {
		return 0, fmt.Errorf("%w: species %q", ErrUnknownName, name)
	}
	return id, nil
}

// SpeciesName resolves an engine species id; id 0 is "None".
func SpeciesName(id uint8) (string, error) {
	t := load()
	if id == 0 {
		return "None", nil
	}
	if int(id) > len(t.species) {
		return "", fmt.Errorf("%w: species id %d", ErrUnknownName, id)
	}
	return t.species[id-1].Name, nil
}

// SpeciesStats returns the base stats for a species.
func SpeciesStats(name string) (Stats, error) {
	id, err := SpeciesID(name)
	if err != nil || id == 0 {
		return Stats{}, err
	}
	return load().species[id-1].Stats, nil
}

// SpeciesTypes returns a species' one or two types.
func SpeciesTypes(name string) ([]string, error) {
	id, err := SpeciesID(name)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return []string{"Normal"}, nil
	}
	return load().species[id-1].Types, nil
}

// MoveID resolves a move name to its engine id.
func MoveID(name string) (uint8, error) {
	id, ok := load().moveID[nameKey(name)]
	if !ok {
		return 0, fmt.Errorf("%w: move %q", ErrUnknownName, name)
	}
	return id, nil
}

// MoveName resolves an engine move id; id 0 is "None".
func MoveName(id uint8) (string, error) {
	t := load()
	if id == 0 {
		return "None", nil
	}
	if int(id) > len(t.moves) {
		return "", fmt.Errorf("%w: move id %d", ErrUnknownName, id)
	}
	return t.moves[id-1].Name, nil
}

// MovePP returns a move's base PP; 0 for the "None" sentinel.
func MovePP(name string) (int, error) {
	id, err := MoveID(name)
	if err != nil || id == 0 {
		return 0, err
	}
	return load().moves[id-1].PP, nil
}

// TypeID resolves a type name to its engine id (zero-based).
func TypeID(name string) (uint8, error) {
	id, ok := load().typeID[nameKey(name)]
	if !ok {
		return 0, fmt.Errorf("%w: type %q", ErrUnknownName, name)
	}
	return id, nil
}

// TypeName resolves an engine type id.
func TypeName(id uint8) (string, error) {
	t := load()
	if int(id) >= len(t.types) {
		return "", fmt.Errorf("%w: type id %d", ErrUnknownName, id)
	}
	return t.types[id], nil
}

// NumSpecies reports how many species the tables carry.
func NumSpecies() int { return len(load().species) }

// NumMoves reports how many moves the tables carry.
func NumMoves() int { return len(load().moves) }

// NumTypes reports how many types the tables carry.
func NumTypes() int { return len(load().types) }

// MessageName returns the protocol name for a binary message tag.
func MessageName(tag byte) (string, error) {
	t := load()
	if int(tag) >= len(t.messages) {
		return "", fmt.Errorf("%w: message tag %d", ErrUnknownName, tag)
	}
	return t.messages[tag], nil
}

// Reasons returns the reason-code names for a protocol message, nil if
// the message carries no reason byte.
func Reasons(message string) []string {
	return load().reasons[message]
}
