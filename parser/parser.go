// Package parser turns the engine's binary protocol traces into
// Pokémon Showdown style protocol messages and human-readable text.
package parser

import (
	"errors"
	"fmt"
	"regexp"

	"pkmn-bridge/bitpack"
	"pkmn-bridge/data"
)

// ErrCorruptTrace is returned when a trace is truncated or contains
// bytes no handler can interpret.
var ErrCorruptTrace = errors.New("parser: corrupt protocol trace")

// Slots carries the display names for each side's party slots, in
// party order.
type Slots [2][]string

// DefaultSlots returns placeholder names for a battle whose teams are
// unknown.
func DefaultSlots() Slots {
	var s Slots
	for p := range s {
		for n := 1; n <= 6; n++ {
			s[p] = append(s[p], fmt.Sprintf("Pokémon #%d", n))
		}
	}
	return s
}

// The reason suffix tables are kept inline rather than read from the
// embedded protocol tables: the decoder is on the battle loop's hot
// path and the indexes are part of the engine's wire contract anyway.
// A test cross-checks them against the data package.
var (
	moveReasons = []string{"", "|[from] "}

	cantReasons = []string{
		"|slp", "|frz", "|par", "|partiallytrapped", "|flinch",
		"|Disable|", "|recharge", "|nopp",
	}

	damageReasons = []string{
		"", "|[from] psn", "|[from] brn", "|[from] confusion", "|[from] Leech Seed",
		"|[from] Recoil|[of] ",
	}

	healReasons = []string{"", "|[silent]", "|[from] drain|[of] "}

	statusReasons = []string{"", "|[silent]", "|[from] "}

	cureStatusReasons = []string{"|[msg]", "|[silent]"}

	failReasons = []string{
		"", "|slp", "|psn", "|brn", "|frz", "|par", "|tox",
		"|move: Substitute", "|move: Substitute|[weak]",
	}

	activateReasons = []string{
		"|Bide", "|confusion", "|move: Haze", "|move: Mist",
		"|move: Struggle", "|Substitute|[damage]", "|move: Splash",
	}

	boostReasons = []string{
		"|atk|[from] Rage", "|atk", "|def", "|spe", "|spa", "|spd", "|accuracy", "|evasion",
	}

	startReasons = []string{
		"|Bide", "|confusion", "|confusion|[silent]", "|move: Focus Energy", "|move: Leech Seed",
		"|Light Screen", "|Mist", "|Reflect", "|Substitute", "",
		"|Disable|", "|Mimic|move: ",
	}

	endReasons = []string{
		"|Disable", "|confusion", "|move: Bide", "|Substitute", "|Disable|[silent]",
		"|confusion|[silent]", "|Mist|[silent]", "|move: Focus Energy|[silent]",
		"|move: Leech Seed|[silent]", "|Toxic counter|[silent]", "|Light Screen|[silent]",
		"|Reflect|[silent]",
	}

	immuneReasons = []string{"", "|[ohko]"}
)

// Reason indexes that make a handler consume extra bytes.
const (
	moveFromReason        = 1
	cantDisableReason     = 5
	damageRecoilReason    = 5
	healDrainReason       = 2
	statusFromMoveReason  = 2
	activateSplashReason  = 6
	activateMistReason    = 3
	startTypechangeReason = 9
	startAddMoveReason    = 10
)

var stillTarget = regexp.MustCompile(`\|p\d[ab]: [^|]*$`)

// Decode converts a zero-terminated binary protocol trace into
// Showdown protocol messages, using placeholder slot names.
func Decode(trace []byte) ([]string, error) {
	return DecodeWithSlots(trace, DefaultSlots())
}

// DecodeWithSlots is Decode with the parties' actual names.
func DecodeWithSlots(trace []byte, slots Slots) ([]string, error) {
	d := &decoder{buf: trace, slots: slots, lastMove: -1}
	for d.i < len(d.buf) {
		tag := d.buf[d.i]
		d.i++
		if tag == 0 {
			return d.msgs, nil
		}
		if err := d.dispatch(tag); err != nil {
			return nil, err
		}
	}
	return d.msgs, nil
}

type decoder struct {
	buf   []byte
	i     int
	slots Slots
	msgs  []string

	// Index of the most recent |move| message, the only message the
	// still/miss annotations may rewrite.
	lastMove int
}

func (d *decoder) corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s at byte %d", ErrCorruptTrace, fmt.Sprintf(format, args...), d.i)
}

// byte consumes the next trace byte.
func (d *decoder) byte() (byte, error) {
	if d.i >= len(d.buf) {
		return 0, d.corrupt("truncated message")
	}
	b := d.buf[d.i]
	d.i++
	return b, nil
}

func (d *decoder) u16() (uint16, error) {
	lo, err := d.byte()
	if err != nil {
		return 0, err
	}
	hi, err := d.byte()
	if err != nil {
		return 0, err
	}
	return bitpack.UnpackU16(lo, hi), nil
}

// ident consumes and formats a pokemon identifier byte: the player in
// bit 3, the position letter in bit 4, and the one-based slot in the
// low three bits.
func (d *decoder) ident() (string, error) {
	b, err := d.byte()
	if err != nil {
		return "", err
	}
	position := "a"
	if b>>4&1 == 1 {
		position = "b"
	}
	player := int(b >> 3 & 1)
	slot := int(b & 0b111)
	if slot < 1 || slot > len(d.slots[player]) {
		return "", d.corrupt("identifier %#x names slot %d", b, slot)
	}
	return fmt.Sprintf("p%d%s: %s", player+1, position, d.slots[player][slot-1]), nil
}

func (d *decoder) move() (string, error) {
	b, err := d.byte()
	if err != nil {
		return "", err
	}
	name, err := data.MoveName(b)
	if err != nil {
		return "", d.corrupt("unknown move id %d", b)
	}
	return name, nil
}

func (d *decoder) reason(table []string, what string) (int, error) {
	b, err := d.byte()
	if err != nil {
		return 0, err
	}
	if int(b) >= len(table) {
		return 0, d.corrupt("%s reason %d out of range", what, b)
	}
	return int(b), nil
}

// statusName decodes a status byte. Sleep lives in the low three bits
// and outranks the flag bits; toxic is checked before the plain
// poison flag it is stored alongside.
func statusName(status byte) string {
	switch {
	case status&0b111 != 0:
		return "slp"
	case status>>7&1 == 1:
		return "tox"
	case status>>6&1 == 1:
		return "par"
	case status>>5&1 == 1:
		return "frz"
	case status>>4&1 == 1:
		return "brn"
	case status>>3&1 == 1:
		return "psn"
	default:
		return ""
	}
}

// hpStatus formats the hp fraction with an optional status suffix, or
// the fainted form at zero hp.
func hpStatus(cur, max uint16, status string) string {
	if cur == 0 {
		return "0 fnt"
	}
	if status != "" {
		return fmt.Sprintf("%d/%d %s", cur, max, status)
	}
	return fmt.Sprintf("%d/%d", cur, max)
}

func (d *decoder) dispatch(tag byte) error {
	switch tag {
	case 1:
		return d.patchLastMove(true)
	case 2:
		return d.patchLastMove(false)
	case 3:
		return d.parseMove()
	case 4:
		return d.parseSwitch()
	case 5:
		return d.parseCant()
	case 6:
		return d.parseIdentOnly("faint")
	case 7:
		return d.parseTurn()
	case 8:
		return d.parseWin()
	case 9:
		d.msgs = append(d.msgs, "|tie")
		return nil
	case 10:
		return d.parseHPChange("-damage", damageReasons, damageRecoilReason)
	case 11:
		return d.parseHPChange("-heal", healReasons, healDrainReason)
	case 12:
		return d.parseStatus()
	case 13:
		return d.parseCureStatus()
	case 14:
		return d.parseBoost()
	case 15:
		d.msgs = append(d.msgs, "|-clearallboost|[silent]")
		return nil
	case 16:
		return d.parseFail()
	case 17:
		return d.parseIdentOnly("-miss")
	case 18:
		return d.parseHitCount()
	case 19:
		return d.parsePrepare()
	case 20:
		return d.parseIdentOnly("-mustrecharge")
	case 21:
		return d.parseActivate()
	case 22:
		d.msgs = append(d.msgs, "|-fieldactivate|move: Pay Day")
		return nil
	case 23:
		return d.parseStart()
	case 24:
		return d.parseEnd()
	case 25:
		d.msgs = append(d.msgs, "|-ohko")
		return nil
	case 26:
		return d.parseIdentOnly("-crit")
	case 27:
		return d.parseIdentOnly("-supereffective")
	case 28:
		return d.parseIdentOnly("-resisted")
	case 29:
		return d.parseImmune()
	case 30:
		return d.parseTransform()
	default:
		return d.corrupt("unknown message tag %d", tag)
	}
}

// patchLastMove rewrites the most recent |move| message: a "still"
// replaces its trailing target with |[still], a "miss" appends |[miss].
func (d *decoder) patchLastMove(still bool) error {
	if d.lastMove < 0 {
		return d.corrupt("move annotation with no preceding |move| message")
	}
	if still {
		d.msgs[d.lastMove] = stillTarget.ReplaceAllString(d.msgs[d.lastMove], "|[still]")
	} else {
		d.msgs[d.lastMove] += "|[miss]"
	}
	return nil
}

func (d *decoder) parseMove() error {
	source, err := d.ident()
	if err != nil {
		return err
	}
	move, err := d.move()
	if err != nil {
		return err
	}
	target, err := d.ident()
	if err != nil {
		return err
	}
	reason, err := d.reason(moveReasons, "move")
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("|move|%s|%s|%s%s", source, move, target, moveReasons[reason])
	if reason == moveFromReason {
		from, err := d.move()
		if err != nil {
			return err
		}
		msg += from
	}
	d.lastMove = len(d.msgs)
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *decoder) parseSwitch() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	speciesByte, err := d.byte()
	if err != nil {
		return err
	}
	species, err := data.SpeciesName(speciesByte)
	if err != nil {
		return d.corrupt("unknown species id %d", speciesByte)
	}
	level, err := d.byte()
	if err != nil {
		return err
	}
	cur, err := d.u16()
	if err != nil {
		return err
	}
	max, err := d.u16()
	if err != nil {
		return err
	}
	statusByte, err := d.byte()
	if err != nil {
		return err
	}

	detail := species
	if level != 100 {
		detail = fmt.Sprintf("%s, L%d", species, level)
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|switch|%s|%s|%s",
		pokemon, detail, hpStatus(cur, max, statusName(statusByte))))
	return nil
}

func (d *decoder) parseCant() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	reason, err := d.reason(cantReasons, "cant")
	if err != nil {
		return err
	}
	msg := "|cant|" + pokemon + cantReasons[reason]
	if reason == cantDisableReason {
		move, err := d.move()
		if err != nil {
			return err
		}
		msg += move
	}
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *decoder) parseIdentOnly(name string) error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|%s|%s", name, pokemon))
	return nil
}

func (d *decoder) parseTurn() error {
	turn, err := d.u16()
	if err != nil {
		return err
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|turn|%d", turn))
	return nil
}

func (d *decoder) parseWin() error {
	player, err := d.byte()
	if err != nil {
		return err
	}
	if player > 1 {
		return d.corrupt("winner byte %d", player)
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|win|p%d", player+1))
	return nil
}

// parseHPChange handles the shared shape of |-damage| and |-heal|.
func (d *decoder) parseHPChange(name string, reasons []string, identReason int) error {
	target, err := d.ident()
	if err != nil {
		return err
	}
	cur, err := d.u16()
	if err != nil {
		return err
	}
	max, err := d.u16()
	if err != nil {
		return err
	}
	statusByte, err := d.byte()
	if err != nil {
		return err
	}
	reason, err := d.reason(reasons, name)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("|%s|%s|%s%s",
		name, target, hpStatus(cur, max, statusName(statusByte)), reasons[reason])
	if reason == identReason {
		source, err := d.ident()
		if err != nil {
			return err
		}
		msg += source
	}
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *decoder) parseStatus() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	statusByte, err := d.byte()
	if err != nil {
		return err
	}
	reason, err := d.reason(statusReasons, "status")
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("|-status|%s|%s%s", pokemon, statusName(statusByte), statusReasons[reason])
	if reason == statusFromMoveReason {
		move, err := d.move()
		if err != nil {
			return err
		}
		msg += "move: " + move
	}
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *decoder) parseCureStatus() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	statusByte, err := d.byte()
	if err != nil {
		return err
	}
	reason, err := d.reason(cureStatusReasons, "curestatus")
	if err != nil {
		return err
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|-curestatus|%s|%s%s",
		pokemon, statusName(statusByte), cureStatusReasons[reason]))
	return nil
}

// parseBoost emits |-boost| or |-unboost| depending on the sign of the
// stage change; the amount byte is biased by 6.
func (d *decoder) parseBoost() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	reason, err := d.reason(boostReasons, "boost")
	if err != nil {
		return err
	}
	amountByte, err := d.byte()
	if err != nil {
		return err
	}
	amount := int(amountByte) - 6
	name := "unboost"
	if amount > 0 {
		name = "boost"
	}
	if amount < 0 {
		amount = -amount
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|-%s|%s%s|%d", name, pokemon, boostReasons[reason], amount))
	return nil
}

func (d *decoder) parseFail() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	reason, err := d.reason(failReasons, "fail")
	if err != nil {
		return err
	}
	d.msgs = append(d.msgs, "|-fail|"+pokemon+failReasons[reason])
	return nil
}

func (d *decoder) parseHitCount() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	count, err := d.byte()
	if err != nil {
		return err
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|-hitcount|%s|%d", pokemon, count))
	return nil
}

func (d *decoder) parsePrepare() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	move, err := d.move()
	if err != nil {
		return err
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|-prepare|%s|%s", pokemon, move))
	return nil
}

// parseActivate consumes an identifier byte even for the Splash
// reason, which renders without one; Mist renders as |-block|.
func (d *decoder) parseActivate() error {
	if d.i+1 >= len(d.buf) {
		return d.corrupt("truncated message")
	}
	reasonByte := d.buf[d.i+1]
	pokemon, err := d.ident()
	if err != nil && int(reasonByte) != activateSplashReason {
		return err
	}
	reason, err := d.reason(activateReasons, "activate")
	if err != nil {
		return err
	}
	name := "activate"
	if reason == activateMistReason {
		name = "block"
	}
	if reason == activateSplashReason {
		pokemon = ""
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|-%s|%s%s", name, pokemon, activateReasons[reason]))
	return nil
}

func (d *decoder) parseStart() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	reason, err := d.reason(startReasons, "start")
	if err != nil {
		return err
	}
	msg := "|-start|" + pokemon + startReasons[reason]
	switch {
	case reason == startTypechangeReason:
		typesByte, err := d.byte()
		if err != nil {
			return err
		}
		t1, t2 := bitpack.UnpackNibbles(typesByte)
		name1, err := data.TypeName(t1)
		if err != nil {
			return d.corrupt("unknown type id %d", t1)
		}
		types := name1
		if t2 != t1 {
			name2, err := data.TypeName(t2)
			if err != nil {
				return d.corrupt("unknown type id %d", t2)
			}
			types += "/" + name2
		}
		target, err := d.ident()
		if err != nil {
			return err
		}
		msg += fmt.Sprintf("|typechange|%s|[from] move: Conversion|[of] %s", types, target)
	case reason >= startAddMoveReason:
		move, err := d.move()
		if err != nil {
			return err
		}
		msg += move
	}
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *decoder) parseEnd() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	reason, err := d.reason(endReasons, "end")
	if err != nil {
		return err
	}
	d.msgs = append(d.msgs, "|-end|"+pokemon+endReasons[reason])
	return nil
}

func (d *decoder) parseImmune() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	reason, err := d.reason(immuneReasons, "immune")
	if err != nil {
		return err
	}
	d.msgs = append(d.msgs, "|-immune|"+pokemon+immuneReasons[reason])
	return nil
}

func (d *decoder) parseTransform() error {
	pokemon, err := d.ident()
	if err != nil {
		return err
	}
	target, err := d.ident()
	if err != nil {
		return err
	}
	d.msgs = append(d.msgs, fmt.Sprintf("|-transform|%s|%s", pokemon, target))
	return nil
}
