// Package events is the closed registry of event names and payload shapes
// flowing over the bus. Names follow the "<domain>:<verb-or-noun>"
// convention; every name has exactly one payload type, so emit and
// subscribe sites can agree at compile time instead of by folklore.
//
// Payloads carry entity ids, never entity pointers. Entities legitimately
// disappear between enqueue and delivery (deferred destruction), so every
// consumer resolves ids through the entity manager and bails when the
// lookup misses.
package events

// Entity lifecycle, emitted by the entity manager.
const (
	EntityCreated   = "entity:created"
	EntityDestroyed = "entity:destroyed"
	EntitiesUpdate  = "entities:update"
)

// Movement.
const (
	EntityRequestMove = "entity:request-move"
	EntityMoved       = "entity:moved"
)

// Combat.
const (
	CombatRequest = "combat:request"
	CombatStarted = "combat:started"
	CombatShifted = "combat:shifted"
	CombatFlee    = "combat:flee"
	CombatEnded   = "combat:ended"
	CombatError   = "combat:error"
)

// Progression.
const (
	ProgressionGrantXP     = "progression:grant-xp"
	ProgressionLevelUp     = "progression:level-up"
	ProgressionSpendTalent = "progression:spend-talent"
	ProgressionChanged     = "progression:changed"
	ProgressionError       = "progression:error"
)

// Relations.
const (
	RelationStandingChanged = "relation:standing-changed"
	RelationAggroGained     = "relation:aggro-gained"
	RelationAggroCleared    = "relation:aggro-cleared"
)

// Party.
const (
	PartyInvite = "party:invite"
	PartyAccept = "party:accept"
	PartyLeave  = "party:leave"
	PartyJoined = "party:joined"
	PartyLeft   = "party:left"
	PartyError  = "party:error"
)

// Pets.
const (
	PetTameRequest = "pet:tame-request"
	PetTamed       = "pet:tamed"
	PetReleased    = "pet:released"
	PetError       = "pet:error"
)

// Zones.
const (
	ZoneEnterRequest = "zone:enter-request"
	ZoneEntered      = "zone:entered"
	ZoneLeft         = "zone:left"
	ZoneError        = "zone:error"
)

// EntityCreatedPayload announces a freshly indexed entity.
type EntityCreatedPayload struct {
	EntityID string
	Tags     []string
}

// EntityDestroyedPayload announces a removed entity. The entity is already
// gone from the manager by the time this is delivered.
type EntityDestroyedPayload struct {
	EntityID string
}

// EntitiesUpdatePayload is the single synchronized tick signal.
type EntitiesUpdatePayload struct {
	Delta float64
	Count int
}

// EntityRequestMovePayload asks the movement system to steer an entity.
type EntityRequestMovePayload struct {
	EntityID string
	X, Y     float64
}

// EntityMovedPayload reports a position change for the render layer.
type EntityMovedPayload struct {
	EntityID string
	X, Y     float64
}

// CombatRequestPayload asks for a bout between two entities.
type CombatRequestPayload struct {
	AttackerID string
	DefenderID string
}

// CombatStartedPayload announces a bout after its windup elapsed.
type CombatStartedPayload struct {
	BoutID     uint64
	AttackerID string
	DefenderID string
}

// CombatShiftedPayload reports the tug meter each time it moves.
// Meter runs -1 (defender winning) to +1 (attacker winning).
type CombatShiftedPayload struct {
	BoutID uint64
	Meter  float64
}

// CombatFleePayload asks to abandon a bout.
type CombatFleePayload struct {
	EntityID string
}

// CombatEndedPayload announces the outcome of a bout.
type CombatEndedPayload struct {
	BoutID   uint64
	WinnerID string
	LoserID  string
	Fled     bool
}

// CombatErrorPayload reports a rejected combat request.
type CombatErrorPayload struct {
	EntityID string
	Reason   string
}

// GrantXPPayload awards experience outside of combat outcomes.
type GrantXPPayload struct {
	EntityID string
	Amount   int
}

// LevelUpPayload announces a level gain.
type LevelUpPayload struct {
	EntityID string
	Level    int
}

// SpendTalentPayload asks to spend one talent point.
type SpendTalentPayload struct {
	EntityID string
	Talent   string
}

// ProgressionChangedPayload reports any XP/level/talent mutation.
type ProgressionChangedPayload struct {
	EntityID string
	Level    int
	XP       int
	Talents  int
}

// ProgressionErrorPayload reports a rejected progression request.
type ProgressionErrorPayload struct {
	EntityID string
	Reason   string
}

// StandingChangedPayload reports a faction standing shift.
type StandingChangedPayload struct {
	Faction  string
	Other    string
	Standing float64
}

// AggroPayload reports an aggro edge between two entities.
type AggroPayload struct {
	SourceID string
	TargetID string
}

// PartyInvitePayload invites an entity into the inviter's party.
type PartyInvitePayload struct {
	InviterID string
	InviteeID string
}

// PartyAcceptPayload accepts a pending invite.
type PartyAcceptPayload struct {
	InviteeID string
}

// PartyLeavePayload leaves the current party.
type PartyLeavePayload struct {
	MemberID string
}

// PartyChangedPayload reports membership changes.
type PartyChangedPayload struct {
	PartyID  string
	MemberID string
}

// PartyErrorPayload reports a rejected party request.
type PartyErrorPayload struct {
	EntityID string
	Reason   string
}

// TameRequestPayload asks to tame a target.
type TameRequestPayload struct {
	OwnerID  string
	TargetID string
}

// PetTamedPayload announces a completed taming.
type PetTamedPayload struct {
	OwnerID string
	PetID   string
}

// PetReleasedPayload announces a pet reverting to wild.
type PetReleasedPayload struct {
	PetID string
}

// PetErrorPayload reports a rejected taming request.
type PetErrorPayload struct {
	EntityID string
	Reason   string
}

// ZoneEnterRequestPayload asks to move an entity into a zone.
type ZoneEnterRequestPayload struct {
	EntityID string
	Zone     string
}

// ZoneEnteredPayload announces a successful zone transition.
type ZoneEnteredPayload struct {
	EntityID string
	Zone     string
	From     string
}

// ZoneLeftPayload announces an entity leaving a zone.
type ZoneLeftPayload struct {
	EntityID string
	Zone     string
}

// ZoneErrorPayload reports a rejected zone transition.
type ZoneErrorPayload struct {
	EntityID string
	Zone     string
	Reason   string
}
