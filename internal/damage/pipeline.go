// Package damage implements the damage pipeline: base damage, +
// bonuses, − reductions, weakness/resistance, prevention, and clamping
// (§4.3 Attack, step 2).
package damage

import (
	"strconv"
	"strings"

	"github.com/pokettcg/rules-engine/internal/card"
)

// Prevention describes an active damage-prevention effect on the
// defender, covering a type/source until a given turn.
type Prevention struct {
	CoversType    card.EnergyType
	ReducesBy     int // 0 means fully blocks
	ExpiresAtTurn int
}

// Input is everything the pipeline needs to compute one attack's
// damage.
type Input struct {
	Semantics         card.AttackSemantics
	AttackerType      card.EnergyType
	AttackerEnergy    []card.EnergyType // resolved energy types currently attached to the attacker
	Defender          card.Card
	DefenderStatus    map[card.Status]bool
	HeadsCount        int
	CurrentTurn       int
	ActivePrevention  *Prevention
}

// Result is the pipeline's output.
type Result struct {
	Damage    int
	Prevented bool
}

// Compute runs the full pipeline and returns the final damage to apply
// to the defender, per §4.3 steps 1-6.
func Compute(in Input) Result {
	base := baseDamage(in)
	withBonus := base + plusBonus(in)
	withReduction := withBonus - in.Semantics.MinusAmount
	withType := applyWeaknessResistance(withReduction, in)
	final, prevented := applyPrevention(withType, in)
	if final < 0 {
		final = 0
	}
	return Result{Damage: final, Prevented: prevented}
}

func baseDamage(in Input) int {
	sem := in.Semantics
	if sem.DamagePerHeads > 0 {
		return sem.DamagePerHeads * in.HeadsCount
	}
	return sem.BaseDamage
}

// plusBonus evaluates the free-text + modifier the attack text parser
// captured, against the concrete attack context. This is the
// "plus_damage_bonus" service from §4.3 step 2.
func plusBonus(in Input) int {
	text := in.Semantics.PlusModifierText
	if text == "" {
		return 0
	}
	bonus := 0
	if idx := strings.Index(text, "more damage for each "); idx >= 0 {
		n := leadingNumber(text)
		energyType := extractEnergyType(text)
		if energyType != "" {
			count := 0
			for _, e := range in.AttackerEnergy {
				if e == card.EnergyType(energyType) {
					count++
				}
			}
			bonus += n * count
		}
	}
	if strings.Contains(text, "if defending is poisoned") && in.DefenderStatus[card.StatusPoisoned] {
		bonus += extractFlatBonus(text)
	}
	if strings.Contains(text, "if defending is asleep") && in.DefenderStatus[card.StatusAsleep] {
		bonus += extractFlatBonus(text)
	}
	return bonus
}

func leadingNumber(s string) int {
	digits := ""
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits += string(r)
		} else if digits != "" {
			break
		}
	}
	n, _ := strconv.Atoi(digits)
	return n
}

func extractFlatBonus(s string) int {
	if idx := strings.Index(s, "+"); idx >= 0 {
		return leadingNumber(s[idx+1:])
	}
	return 0
}

func extractEnergyType(s string) string {
	for _, t := range []card.EnergyType{
		card.EnergyFire, card.EnergyWater, card.EnergyGrass, card.EnergyLightning,
		card.EnergyPsychic, card.EnergyFighting, card.EnergyDarkness, card.EnergyMetal,
		card.EnergyFairy, card.EnergyDragon, card.EnergyColorless,
	} {
		if strings.Contains(s, strings.ToLower(string(t))) {
			return string(t)
		}
	}
	return ""
}

// applyWeaknessResistance applies the defender's weakness then
// resistance modifier, in that order, against the attacker's type.
func applyWeaknessResistance(dmg int, in Input) int {
	if dmg <= 0 {
		return dmg
	}
	if w := in.Defender.Weakness; w != nil && w.Type == in.AttackerType {
		dmg = applyModifier(dmg, w.Modifier)
	}
	if r := in.Defender.Resistance; r != nil && r.Type == in.AttackerType {
		dmg = applyModifier(dmg, r.Modifier)
	}
	return dmg
}

// applyModifier interprets a parsed modifier string like "×2", "+20",
// "-30".
func applyModifier(dmg int, modifier string) int {
	m := strings.TrimSpace(modifier)
	switch {
	case strings.HasPrefix(m, "×") || strings.HasPrefix(m, "x"):
		n, _ := strconv.Atoi(strings.TrimLeft(m, "×x"))
		if n == 0 {
			n = 2
		}
		return dmg * n
	case strings.HasPrefix(m, "+"):
		n, _ := strconv.Atoi(m[1:])
		return dmg + n
	case strings.HasPrefix(m, "-"):
		n, _ := strconv.Atoi(m[1:])
		return dmg - n
	default:
		return dmg
	}
}

func applyPrevention(dmg int, in Input) (int, bool) {
	p := in.ActivePrevention
	if p == nil || p.ExpiresAtTurn < in.CurrentTurn {
		return dmg, false
	}
	if p.CoversType != "" && p.CoversType != in.AttackerType {
		return dmg, false
	}
	if p.ReducesBy <= 0 {
		return 0, true
	}
	return dmg - p.ReducesBy, false
}
