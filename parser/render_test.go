package parser

import "testing"

func TestHumanizeMove(t *testing.T) {
	msgs, err := Decode([]byte{3, 1, 94, 9, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	got := Humanize(msgs)
	want := "Player 1's Pokémon #1 used Psychic on Player 2's Pokémon #1."
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want [%q]", got, want)
	}
}

func TestHumanizeSentences(t *testing.T) {
	cases := []struct {
		msg  string
		want string
	}{
		{"|faint|p2a: Gengar", "Player 2's Gengar fainted!"},
		{"|turn|3", "=== Turn 3 ==="},
		{"|win|p1", "Player 1 won the battle!"},
		{"|tie", "The battle ended in a tie!"},
		{"|-supereffective|p2a: Gengar", "Super-effective hit on Player 2's Gengar!"},
		{"|-resisted|p1a: Snorlax", "Not very effective on Player 1's Snorlax."},
		{"|-crit|p2a: Chansey", "A critical hit on Player 2's Chansey!"},
		{"|-damage|p2a: Gengar|100/323", "Damage dealt to Player 2's Gengar (now 100/323 HP)."},
		{"|-damage|p2a: Gengar|0 fnt", "Damage dealt to Player 2's Gengar (now 0 HP)."},
		{"|-heal|p1a: Chansey|600/703", "Player 1's Chansey recovered health (now 600/703 HP)."},
		{"|-status|p1a: Tauros|par", "Player 1's Tauros was paralyzed!"},
		{"|-curestatus|p1a: Tauros|par|[msg]", "Player 1's Tauros recovered from par."},
		{"|-boost|p1a: Snorlax|atk|2", "Player 1's Snorlax's atk rose by 2."},
		{"|-unboost|p2a: Gengar|spe|1", "Player 2's Gengar's spe fell by 1."},
		{"|switch|p1a: Zard|Charizard, L73|189/314", "Player 1 sent out Zard (Charizard, L73)."},
		{"|cant|p1a: Gengar|slp", "Player 1's Gengar is fast asleep!"},
		{"|cant|p1a: Gengar|Disable|Psychic", "Player 1's Gengar's Psychic is disabled!"},
		{"|-transform|p1a: Ditto|p2a: Gengar", "Player 1's Ditto transformed into Player 2's Gengar!"},
		{"|-ohko", "It's a one-hit KO!"},
		{"|-mustrecharge|p1a: Snorlax", "Player 1's Snorlax must recharge!"},
		{"|-prepare|p1a: Gengar|Solar Beam", "Player 1's Gengar is preparing Solar Beam."},
		{"|-hitcount|p2a: Gengar|2", "Hit 2 time(s)!"},
		{"|-immune|p2a: Gengar|", "It doesn't affect Player 2's Gengar."},
	}
	for _, c := range cases {
		got := humanizeOne(c.msg)
		if got != c.want {
			t.Errorf("humanizeOne(%q): got %q, want %q", c.msg, got, c.want)
		}
	}
}

func TestHumanizeMoveVariants(t *testing.T) {
	if got := humanizeOne("|move|p1a: Gengar|Psychic|[still]"); got != "Player 1's Gengar used Psychic." {
		t.Errorf("still: got %q", got)
	}
	got := humanizeOne("|move|p1a: Gengar|Psychic|p2a: Tauros|[miss]")
	if got != "Player 1's Gengar used Psychic on Player 2's Tauros, but it missed!" {
		t.Errorf("miss: got %q", got)
	}
}

func TestHumanizePassthrough(t *testing.T) {
	for _, msg := range []string{"|-weird|thing", "not protocol at all"} {
		if got := humanizeOne(msg); got != msg {
			t.Errorf("humanizeOne(%q): got %q, want passthrough", msg, got)
		}
	}
}
