// Package party manages rosters, invites and leadership.
package party

import (
	"slices"

	"github.com/google/uuid"

	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
)

// Rejection reasons carried by party:error payloads.
const (
	ReasonUnknownEntity  = "unknown-entity"
	ReasonAlreadyInParty = "already-in-party"
	ReasonPartyFull      = "party-full"
	ReasonNoInvite       = "no-invite"
)

type party struct {
	id       string
	leaderID string
	members  []string // leader first, join order after
}

type invite struct {
	partyID   string
	inviterID string
}

// System owns the partyRole component. A party comes to exist when its
// first invite goes out and disbands when the leader leaves.
type System struct {
	lg  log.Log
	bus bus.Bus
	em  *entity.Manager
	cfg config.PartyConfig

	parties  map[string]*party
	memberOf map[string]string // entity id -> party id
	invites  map[string]invite // invitee id -> pending invite, latest wins
}

func New(b bus.Bus, em *entity.Manager, cfg config.PartyConfig, lg log.Log) *System {
	if lg == nil {
		lg = log.Provide()
	}
	s := &System{
		lg:       lg.With(log.String("system", "party")),
		bus:      b,
		em:       em,
		cfg:      cfg,
		parties:  make(map[string]*party),
		memberOf: make(map[string]string),
		invites:  make(map[string]invite),
	}
	b.On(events.PartyInvite, s.onInvite)
	b.On(events.PartyAccept, s.onAccept)
	b.On(events.PartyLeave, s.onLeave)
	b.On(events.EntityDestroyed, s.onEntityDestroyed)
	return s
}

func (s *System) Name() string { return "party" }

func (s *System) Owns() []string { return []string{"partyRole"} }

func (s *System) Update(dt float64) {}

// PartyOf returns the party id an entity belongs to.
func (s *System) PartyOf(entityID string) (string, bool) {
	id, ok := s.memberOf[entityID]
	return id, ok
}

// Members returns the roster in join order, leader first.
func (s *System) Members(partyID string) []string {
	p, ok := s.parties[partyID]
	if !ok {
		return nil
	}
	return slices.Clone(p.members)
}

func (s *System) onInvite(e bus.Event) error {
	p, ok := e.Payload.(events.PartyInvitePayload)
	if !ok {
		return nil
	}
	inviter := s.em.GetEntity(p.InviterID)
	invitee := s.em.GetEntity(p.InviteeID)
	if inviter == nil || invitee == nil || p.InviterID == p.InviteeID {
		s.reject(p.InviterID, ReasonUnknownEntity)
		return nil
	}
	if _, taken := s.memberOf[p.InviteeID]; taken {
		s.reject(p.InviterID, ReasonAlreadyInParty)
		return nil
	}

	partyID, ok := s.memberOf[p.InviterID]
	if !ok {
		partyID = s.found(inviter)
	}
	if len(s.parties[partyID].members) >= s.cfg.MaxSize {
		s.reject(p.InviterID, ReasonPartyFull)
		return nil
	}
	s.invites[p.InviteeID] = invite{partyID: partyID, inviterID: p.InviterID}
	return nil
}

func (s *System) onAccept(e bus.Event) error {
	p, ok := e.Payload.(events.PartyAcceptPayload)
	if !ok {
		return nil
	}
	inv, ok := s.invites[p.InviteeID]
	if !ok {
		s.reject(p.InviteeID, ReasonNoInvite)
		return nil
	}
	delete(s.invites, p.InviteeID)

	invitee := s.em.GetEntity(p.InviteeID)
	if invitee == nil {
		s.reject(p.InviteeID, ReasonUnknownEntity)
		return nil
	}
	if _, taken := s.memberOf[p.InviteeID]; taken {
		s.reject(p.InviteeID, ReasonAlreadyInParty)
		return nil
	}
	pt, ok := s.parties[inv.partyID]
	if !ok {
		// Party disbanded between invite and accept.
		s.reject(p.InviteeID, ReasonNoInvite)
		return nil
	}
	if len(pt.members) >= s.cfg.MaxSize {
		s.reject(p.InviteeID, ReasonPartyFull)
		return nil
	}
	s.join(pt, invitee, "member")
	return nil
}

func (s *System) onLeave(e bus.Event) error {
	p, ok := e.Payload.(events.PartyLeavePayload)
	if !ok {
		return nil
	}
	s.remove(p.MemberID)
	return nil
}

func (s *System) onEntityDestroyed(e bus.Event) error {
	p, ok := e.Payload.(events.EntityDestroyedPayload)
	if !ok {
		return nil
	}
	delete(s.invites, p.EntityID)
	s.remove(p.EntityID)
	return nil
}

// found creates a fresh party with the entity as leader.
func (s *System) found(leader *entity.Entity) string {
	pt := &party{
		id:       uuid.NewString(),
		leaderID: leader.ID(),
		members:  []string{leader.ID()},
	}
	s.parties[pt.id] = pt
	s.memberOf[leader.ID()] = pt.id
	leader.AddComponent("partyRole", entity.Component{"partyId": pt.id, "role": "leader"})
	s.bus.Emit(events.PartyJoined, events.PartyChangedPayload{
		PartyID: pt.id, MemberID: leader.ID(),
	})
	return pt.id
}

func (s *System) join(pt *party, member *entity.Entity, role string) {
	pt.members = append(pt.members, member.ID())
	s.memberOf[member.ID()] = pt.id
	member.AddComponent("partyRole", entity.Component{"partyId": pt.id, "role": role})
	s.bus.Emit(events.PartyJoined, events.PartyChangedPayload{
		PartyID: pt.id, MemberID: member.ID(),
	})
}

// remove takes an entity out of its party; a departing leader disbands
// the whole roster.
func (s *System) remove(entityID string) {
	partyID, ok := s.memberOf[entityID]
	if !ok {
		return
	}
	pt := s.parties[partyID]
	if pt.leaderID == entityID {
		s.disband(pt)
		return
	}
	pt.members = slices.DeleteFunc(pt.members, func(id string) bool { return id == entityID })
	s.drop(pt.id, entityID)
	if len(pt.members) < 2 {
		// A roster of one is no party.
		s.disband(pt)
	}
}

func (s *System) disband(pt *party) {
	s.lg.Debug("party disbanded", log.String("party", pt.id))
	for _, id := range pt.members {
		s.drop(pt.id, id)
	}
	delete(s.parties, pt.id)
}

// drop clears one member's bookkeeping and announces the departure.
func (s *System) drop(partyID, entityID string) {
	delete(s.memberOf, entityID)
	if ent := s.em.GetEntity(entityID); ent != nil {
		ent.RemoveComponent("partyRole")
	}
	s.bus.Emit(events.PartyLeft, events.PartyChangedPayload{
		PartyID: partyID, MemberID: entityID,
	})
}

func (s *System) reject(id, reason string) {
	s.lg.Debug("party request rejected",
		log.String("entity", id), log.String("reason", reason))
	s.bus.Emit(events.PartyError, events.PartyErrorPayload{
		EntityID: id,
		Reason:   reason,
	})
}
