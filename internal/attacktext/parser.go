// Package attacktext parses an attack's free-text description into a
// card.AttackSemantics record once, at card-ingestion time. The engine
// never re-parses text while resolving an attack (design note: "treat
// this as a parser producing a strongly-typed record... the engine
// consumes the parsed form, never re-parses at action time").
package attacktext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pokettcg/rules-engine/internal/card"
)

var (
	baseDamageRe   = regexp.MustCompile(`^(\d+)`)
	headsRe        = regexp.MustCompile(`(\d+)\s*[×x]\s*(?:heads|damage for each heads)`)
	plusRe         = regexp.MustCompile(`(\d+)\+`)
	flipNRe        = regexp.MustCompile(`flip\s+(\d+)\s+coins?`)
	flipUntilRe    = regexp.MustCompile(`flip\s+a\s+coin\s+until\s+tails`)
	flipEnergyRe   = regexp.MustCompile(`flip\s+a\s+coin\s+for\s+each\s+(?:attached\s+)?energy`)
	moreDamageRe   = regexp.MustCompile(`does\s+(\d+)\s+more\s+damage`)
	reduceRe       = regexp.MustCompile(`reduce(?:s)?\s+damage\s+by\s+(\d+)`)
	selfDamageRe   = regexp.MustCompile(`this\s+pok[eé]mon\s+does\s+(\d+)\s+damage\s+to\s+itself`)
	benchAllRe     = regexp.MustCompile(`(\d+)\s+damage\s+to\s+each\s+of\s+your\s+opponent'?s?\s+benched`)
	benchNamedRe   = regexp.MustCompile(`(\d+)\s+damage\s+to\s+1\s+of\s+your\s+opponent'?s?\s+benched\s+([A-Za-z ]+)`)
	discardEnergyRe = regexp.MustCompile(`discard\s+(\d+|a|an)\s+energy`)
	inflictRe      = regexp.MustCompile(`(asleep|paralyzed|confused|poisoned|burned)`)
)

// Parse extracts card.AttackSemantics from an attack's text. Unmatched
// patterns leave the corresponding field at its zero value, which the
// damage pipeline treats as "no effect".
func Parse(text string) card.AttackSemantics {
	t := strings.ToLower(strings.TrimSpace(text))
	sem := card.AttackSemantics{}

	if m := baseDamageRe.FindStringSubmatch(t); m != nil {
		sem.BaseDamage, _ = strconv.Atoi(m[1])
	}
	if m := headsRe.FindStringSubmatch(t); m != nil {
		sem.DamagePerHeads, _ = strconv.Atoi(m[1])
		sem.BaseDamage = 0
	} else if m := plusRe.FindStringSubmatch(t); m != nil {
		sem.BaseDamage, _ = strconv.Atoi(m[1])
		sem.DamagePlusPerUse = true
	}

	sem.Flips = parseFlipConfiguration(t)

	if m := moreDamageRe.FindStringSubmatch(t); m != nil {
		sem.PlusModifierText = t
		_ = m
	} else if strings.Contains(t, "+20 if") || strings.Contains(t, "more damage") {
		sem.PlusModifierText = t
	}

	if m := reduceRe.FindStringSubmatch(t); m != nil {
		sem.MinusAmount, _ = strconv.Atoi(m[1])
	}

	if m := selfDamageRe.FindStringSubmatch(t); m != nil {
		sem.SelfDamage, _ = strconv.Atoi(m[1])
	}

	if m := benchNamedRe.FindStringSubmatch(t); m != nil {
		amt, _ := strconv.Atoi(m[1])
		sem.BenchDamage = &card.BenchDamage{Amount: amt, Target: strings.TrimSpace(m[2])}
	} else if m := benchAllRe.FindStringSubmatch(t); m != nil {
		amt, _ := strconv.Atoi(m[1])
		sem.BenchDamage = &card.BenchDamage{Amount: amt, Target: "ALL"}
	}

	if m := discardEnergyRe.FindStringSubmatch(t); m != nil {
		switch m[1] {
		case "a", "an":
			sem.DiscardEnergy = 1
		default:
			sem.DiscardEnergy, _ = strconv.Atoi(m[1])
		}
	}

	requiresFlip := strings.Contains(t, "flip a coin") && (strings.Contains(t, "if heads") || strings.Contains(t, "is now"))
	for _, m := range inflictRe.FindAllStringSubmatch(t, -1) {
		status := strings.ToUpper(m[1])
		sem.Inflicts = append(sem.Inflicts, card.StatusInfliction{Status: status, RequiresFlip: requiresFlip})
	}

	return sem
}

func parseFlipConfiguration(t string) *card.CoinFlipConfiguration {
	if m := flipNRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return &card.CoinFlipConfiguration{Kind: card.FlipCountFixed, N: n}
	}
	if flipUntilRe.MatchString(t) {
		return &card.CoinFlipConfiguration{Kind: card.FlipCountUntilTails, N: 0}
	}
	if flipEnergyRe.MatchString(t) {
		return &card.CoinFlipConfiguration{Kind: card.FlipCountVariable}
	}
	return nil
}

// RequiresCoinFlips reports whether the attack needs a CoinFlipState
// before damage can be computed, per §4.3 "if the attack text requires
// coin flips... create a CoinFlipState... and return".
func RequiresCoinFlips(sem card.AttackSemantics) bool {
	return sem.Flips != nil
}
