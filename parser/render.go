package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var identForm = regexp.MustCompile(`^p([12])[ab]: (.*)$`)

// identProse rewrites a protocol identifier as prose, e.g.
// "p1a: Gengar" becomes "Player 1's Gengar".
func identProse(ident string) string {
	m := identForm.FindStringSubmatch(ident)
	if m == nil {
		return ident
	}
	return fmt.Sprintf("Player %s's %s", m[1], m[2])
}

var statusProse = map[string]string{
	"slp": "fell asleep",
	"psn": "was poisoned",
	"brn": "was burned",
	"frz": "was frozen solid",
	"par": "was paralyzed",
	"tox": "was badly poisoned",
}

var cantProse = map[string]string{
	"slp":              "is fast asleep",
	"frz":              "is frozen solid",
	"par":              "is fully paralyzed",
	"partiallytrapped": "is trapped and can't move",
	"flinch":           "flinched",
	"recharge":         "must recharge",
	"nopp":             "has no PP left",
}

// Humanize renders decoded protocol messages as english sentences.
// Messages it has no prose for pass through unchanged, so the output
// never silently drops information.
func Humanize(messages []string) []string {
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		out = append(out, humanizeOne(msg))
	}
	return out
}

func humanizeOne(msg string) string {
	if !strings.HasPrefix(msg, "|") {
		return msg
	}
	parts := strings.Split(msg[1:], "|")
	args := parts[1:]
	switch parts[0] {
	case "move":
		return humanizeMove(args)
	case "switch":
		if len(args) < 3 {
			return msg
		}
		m := identForm.FindStringSubmatch(args[0])
		if m == nil {
			return msg
		}
		return fmt.Sprintf("Player %s sent out %s (%s).", m[1], m[2], args[1])
	case "cant":
		if len(args) < 2 {
			return msg
		}
		if args[1] == "Disable" && len(args) >= 3 {
			return fmt.Sprintf("%s's %s is disabled!", identProse(args[0]), args[2])
		}
		if prose, ok := cantProse[args[1]]; ok {
			return fmt.Sprintf("%s %s!", identProse(args[0]), prose)
		}
		return msg
	case "faint":
		return fmt.Sprintf("%s fainted!", identProse(args[0]))
	case "turn":
		return fmt.Sprintf("=== Turn %s ===", args[0])
	case "win":
		return fmt.Sprintf("Player %s won the battle!", strings.TrimPrefix(args[0], "p"))
	case "tie":
		return "The battle ended in a tie!"
	case "-damage":
		if len(args) < 2 {
			return msg
		}
		return fmt.Sprintf("Damage dealt to %s (now %s).", identProse(args[0]), hpProse(args[1]))
	case "-heal":
		if len(args) < 2 {
			return msg
		}
		return fmt.Sprintf("%s recovered health (now %s).", identProse(args[0]), hpProse(args[1]))
	case "-status":
		if len(args) < 2 {
			return msg
		}
		if prose, ok := statusProse[args[1]]; ok {
			return fmt.Sprintf("%s %s!", identProse(args[0]), prose)
		}
		return msg
	case "-curestatus":
		if len(args) < 2 {
			return msg
		}
		return fmt.Sprintf("%s recovered from %s.", identProse(args[0]), args[1])
	case "-boost":
		if len(args) < 3 {
			return msg
		}
		return fmt.Sprintf("%s's %s rose by %s.", identProse(args[0]), args[1], args[2])
	case "-unboost":
		if len(args) < 3 {
			return msg
		}
		return fmt.Sprintf("%s's %s fell by %s.", identProse(args[0]), args[1], args[2])
	case "-crit":
		return fmt.Sprintf("A critical hit on %s!", identProse(args[0]))
	case "-supereffective":
		return fmt.Sprintf("Super-effective hit on %s!", identProse(args[0]))
	case "-resisted":
		return fmt.Sprintf("Not very effective on %s.", identProse(args[0]))
	case "-immune":
		return fmt.Sprintf("It doesn't affect %s.", identProse(args[0]))
	case "-miss":
		return fmt.Sprintf("%s's attack missed!", identProse(args[0]))
	case "-mustrecharge":
		return fmt.Sprintf("%s must recharge!", identProse(args[0]))
	case "-ohko":
		return "It's a one-hit KO!"
	case "-hitcount":
		if len(args) < 2 {
			return msg
		}
		return fmt.Sprintf("Hit %s time(s)!", args[1])
	case "-prepare":
		if len(args) < 2 {
			return msg
		}
		return fmt.Sprintf("%s is preparing %s.", identProse(args[0]), args[1])
	case "-transform":
		if len(args) < 2 {
			return msg
		}
		return fmt.Sprintf("%s transformed into %s!", identProse(args[0]), identProse(args[1]))
	default:
		return msg
	}
}

func humanizeMove(args []string) string {
	if len(args) < 2 {
		return "|move|" + strings.Join(args, "|")
	}
	user := identProse(args[0])
	move := args[1]
	if len(args) >= 3 {
		switch args[2] {
		case "[still]":
			return fmt.Sprintf("%s used %s.", user, move)
		case "":
		default:
			if !strings.HasPrefix(args[2], "[") {
				if len(args) >= 4 && args[3] == "[miss]" {
					return fmt.Sprintf("%s used %s on %s, but it missed!", user, move, identProse(args[2]))
				}
				return fmt.Sprintf("%s used %s on %s.", user, move, identProse(args[2]))
			}
		}
	}
	return fmt.Sprintf("%s used %s.", user, move)
}

func hpProse(hp string) string {
	if hp == "0 fnt" {
		return "0 HP"
	}
	return hp + " HP"
}
