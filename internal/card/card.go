// Package card defines the immutable catalog and in-play card value
// objects: Card (content-addressed catalog entries) and CardInstance
// (a Pokémon in play).
package card

import "encoding/json"

// Stage is a Pokémon's evolution stage.
type Stage string

const (
	StageBasic  Stage = "BASIC"
	StageStage1 Stage = "STAGE_1"
	StageStage2 Stage = "STAGE_2"
)

// Next returns the stage one step past s, and false if s cannot evolve
// further.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StageBasic:
		return StageStage1, true
	case StageStage1:
		return StageStage2, true
	default:
		return "", false
	}
}

// EnergyType is one of the closed set of Pokémon energy types.
type EnergyType string

const (
	EnergyColorless EnergyType = "COLORLESS"
	EnergyFire      EnergyType = "FIRE"
	EnergyWater     EnergyType = "WATER"
	EnergyGrass     EnergyType = "GRASS"
	EnergyLightning EnergyType = "LIGHTNING"
	EnergyPsychic   EnergyType = "PSYCHIC"
	EnergyFighting  EnergyType = "FIGHTING"
	EnergyDarkness  EnergyType = "DARKNESS"
	EnergyMetal     EnergyType = "METAL"
	EnergyFairy     EnergyType = "FAIRY"
	EnergyDragon    EnergyType = "DRAGON"
)

// Kind distinguishes the three catalog card families.
type Kind string

const (
	KindPokemon Kind = "POKEMON"
	KindTrainer Kind = "TRAINER"
	KindEnergy  Kind = "ENERGY"
)

// AbilityTrigger classifies when an ability may fire.
type AbilityTrigger string

const (
	AbilityActivated AbilityTrigger = "ACTIVATED"
	AbilityTriggered AbilityTrigger = "TRIGGERED"
	AbilityPassive   AbilityTrigger = "PASSIVE"
)

// AbilityFrequency constrains how often an ability may be used.
type AbilityFrequency string

const (
	FrequencyUnlimited   AbilityFrequency = "UNLIMITED"
	FrequencyOncePerTurn AbilityFrequency = "ONCE_PER_TURN"
)

// Ability is a Pokémon's single optional ability.
type Ability struct {
	Name      string
	Trigger   AbilityTrigger
	Frequency AbilityFrequency
	Effects   []Effect
}

// Attack is a Pokémon's attack slot, including the raw source text and
// its parsed semantics. The engine never re-parses Text at action time
// (see internal/attacktext); Semantics is populated at catalog-ingestion
// time and is what handlers consume.
type Attack struct {
	Name       string
	Cost       EnergyCost
	Text       string
	Semantics  AttackSemantics
}

// EnergyCost is a multiset over energy types plus a colorless count.
type EnergyCost struct {
	Types     map[EnergyType]int
	Colorless int
}

// CoinFlipCountKind is the closed set of ways an attack's coin-flip
// count can be computed.
type CoinFlipCountKind string

const (
	FlipCountFixed       CoinFlipCountKind = "FIXED"
	FlipCountUntilTails  CoinFlipCountKind = "UNTIL_TAILS"
	FlipCountVariable    CoinFlipCountKind = "VARIABLE" // one per attached energy
)

// CoinFlipConfiguration describes how many coins an attack or effect
// flips.
type CoinFlipConfiguration struct {
	Kind CoinFlipCountKind
	N    int // FIXED count, or UNTIL_TAILS safety cap
}

// StatusInfliction describes a status effect an attack may inflict,
// optionally gated on a coin flip.
type StatusInfliction struct {
	Status        string // one of the closed status-effect names
	RequiresFlip  bool
}

// BenchDamage describes secondary damage an attack deals to bench
// Pokémon.
type BenchDamage struct {
	Amount int
	Target string // "ALL" or a specific Pokémon name filter
}

// AttackSemantics is the strongly-typed result of parsing an attack's
// free text (internal/attacktext), consumed by the damage pipeline and
// never re-derived from text at action-execution time.
type AttackSemantics struct {
	BaseDamage       int
	DamagePerHeads   int  // for "N x heads" patterns; 0 if not heads-scaled
	DamagePlusPerUse bool // "N+" pattern: base damage plus a bonus computed elsewhere
	Flips            *CoinFlipConfiguration
	PlusModifierText string // free text fed to the plus-damage-bonus evaluator
	MinusAmount      int    // flat "reduce damage by N" on defender's side, parsed here for self-reductions
	SelfDamage       int
	BenchDamage      *BenchDamage
	Inflicts         []StatusInfliction
	DiscardEnergy    int // number of defender's attached energy discarded
}

// TrainerEffectSource/Target describe where a trainer effect's cards
// come from and go to.
type EffectZone string

const (
	ZoneHand    EffectZone = "HAND"
	ZoneDeck    EffectZone = "DECK"
	ZoneDiscard EffectZone = "DISCARD"
	ZoneSelf    EffectZone = "SELF"
	ZoneBench   EffectZone = "BENCH"
	ZoneActive  EffectZone = "ACTIVE"
	ZonePrize   EffectZone = "PRIZE"
)

// EffectKind is the closed set of trainer/ability effect primitives the
// executor understands. Effects are data, not objects: internal/effects
// dispatches on Kind through one exhaustive switch.
type EffectKind string

const (
	EffectHeal           EffectKind = "HEAL"
	EffectDraw           EffectKind = "DRAW"
	EffectSearch         EffectKind = "SEARCH"
	EffectDiscard        EffectKind = "DISCARD"
	EffectPutIntoPlay    EffectKind = "PUT_INTO_PLAY"
	EffectAttachEnergy   EffectKind = "ATTACH_ENERGY"
	EffectShuffleIntoDeck EffectKind = "SHUFFLE_INTO_DECK"
	EffectSwitchActive   EffectKind = "SWITCH_ACTIVE"
	EffectPreventDamage  EffectKind = "PREVENT_DAMAGE"
	EffectCureStatus     EffectKind = "CURE_STATUS"
)

// ConditionKind is the closed set of guards an effect may be gated on
// (spec component table: "Effect condition evaluator | Evaluate guards
// on effects (energy attached, coin-flip heads, opponent type, etc.)").
type ConditionKind string

const (
	ConditionEnergyAttached ConditionKind = "ENERGY_ATTACHED"
	ConditionCoinFlipHeads  ConditionKind = "COIN_FLIP_HEADS"
	ConditionOpponentType   ConditionKind = "OPPONENT_TYPE"
	ConditionBenchHasSpace  ConditionKind = "BENCH_HAS_SPACE"
	ConditionHandSize       ConditionKind = "HAND_SIZE"
)

// Condition is one guard on an effect. Conditions live alongside Effect
// in the card package (rather than internal/effects, which imports
// card) since a card definition needs to carry them.
type Condition struct {
	Kind ConditionKind
	Amount int
	Type   EnergyType
}

// Effect is one step of a Trainer's (ordered) effect list or an
// Ability's effect list. Conditions, when present, must all hold
// (conjunctive) before the effect runs; an unmet guard skips the
// effect as a no-op rather than failing the whole action (see
// internal/effects.Apply).
type Effect struct {
	Kind       EffectKind
	Source     EffectZone
	Target     EffectZone
	Amount     int
	CardFilter string // e.g. a Pokémon name or stage filter, effect-specific
	Conditions []Condition
}

// Weakness/Resistance describe a per-type damage modifier on a
// Pokémon's card definition. Modifier is parsed text such as "×2",
// "+20", "-30".
type TypeModifier struct {
	Type     EnergyType
	Modifier string
}

// Card is an immutable, content-addressed catalog entry.
type Card struct {
	ID   string
	Kind Kind

	// Pokémon fields
	Name         string
	Stage        Stage
	HP           int
	PokemonType  EnergyType
	Attacks      []Attack
	Ability      *Ability
	Weakness     *TypeModifier
	Resistance   *TypeModifier
	RetreatCost  int
	EvolvesFrom  string

	// Trainer fields
	TrainerEffects []Effect

	// Energy fields
	EnergyIsBasic    bool
	EnergyProvisions []EnergyType
}

// Provisions returns the set of energy types this card can satisfy when
// attached, per §3: basic energies provide their single type, special
// energies provide a declared set.
func (c Card) Provisions() []EnergyType {
	if c.Kind != KindEnergy {
		return nil
	}
	return c.EnergyProvisions
}

type cardJSON struct {
	ID               string         `json:"id"`
	Kind             Kind           `json:"kind"`
	Name             string         `json:"name,omitempty"`
	Stage            Stage          `json:"stage,omitempty"`
	HP               int            `json:"hp,omitempty"`
	PokemonType      EnergyType     `json:"pokemon_type,omitempty"`
	Attacks          []Attack       `json:"attacks,omitempty"`
	Ability          *Ability       `json:"ability,omitempty"`
	Weakness         *TypeModifier  `json:"weakness,omitempty"`
	Resistance       *TypeModifier  `json:"resistance,omitempty"`
	RetreatCost      int            `json:"retreat_cost,omitempty"`
	EvolvesFrom      string         `json:"evolves_from,omitempty"`
	TrainerEffects   []Effect       `json:"trainer_effects,omitempty"`
	EnergyIsBasic    bool           `json:"energy_is_basic,omitempty"`
	EnergyProvisions []EnergyType   `json:"energy_provisions,omitempty"`
}

// MarshalJSON implements json.Marshaler, following a Card/CardJSON
// split so the catalog can be stored and replayed as plain JSON.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{
		ID: c.ID, Kind: c.Kind, Name: c.Name, Stage: c.Stage, HP: c.HP,
		PokemonType: c.PokemonType, Attacks: c.Attacks, Ability: c.Ability,
		Weakness: c.Weakness, Resistance: c.Resistance, RetreatCost: c.RetreatCost,
		EvolvesFrom: c.EvolvesFrom, TrainerEffects: c.TrainerEffects,
		EnergyIsBasic: c.EnergyIsBasic, EnergyProvisions: c.EnergyProvisions,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Card) UnmarshalJSON(data []byte) error {
	var j cardJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*c = Card{
		ID: j.ID, Kind: j.Kind, Name: j.Name, Stage: j.Stage, HP: j.HP,
		PokemonType: j.PokemonType, Attacks: j.Attacks, Ability: j.Ability,
		Weakness: j.Weakness, Resistance: j.Resistance, RetreatCost: j.RetreatCost,
		EvolvesFrom: j.EvolvesFrom, TrainerEffects: j.TrainerEffects,
		EnergyIsBasic: j.EnergyIsBasic, EnergyProvisions: j.EnergyProvisions,
	}
	return nil
}
