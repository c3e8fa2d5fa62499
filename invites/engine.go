package invites

import (
	"context"
	"fmt"
	"time"

	"github.com/rosterbot/roster-server/models/userdata"
	"github.com/rs/zerolog/log"
)

type NotifyKind string

const (
	NotifyInvite    NotifyKind = "invite"
	NotifyApproved  NotifyKind = "approved"
	NotifyRejected  NotifyKind = "rejected"
	NotifyDeclined  NotifyKind = "declined"
	NotifyNoChannel NotifyKind = "no_channel_configured"
)

// Store is the durable record of invitations. Transition has compare-and-swap
// semantics: it fails with ErrStaleTransition when the stored status does not
// match expected, so no two transitions out of the same state can both
// succeed.
type Store interface {
	Create(ctx context.Context, teamId, inviteeId, inviterId int64, ttl time.Duration) (*userdata.Invitation, error)
	Get(ctx context.Context, id int64) (*userdata.Invitation, error)
	ListPendingByInvitee(ctx context.Context, inviteeId int64) ([]userdata.Invitation, error)
	ListPendingByInviter(ctx context.Context, inviterId int64) ([]userdata.Invitation, error)
	ListOverdue(ctx context.Context, now time.Time) ([]userdata.Invitation, error)
	Transition(ctx context.Context, id int64, expected, next userdata.InvitationStatus) (*userdata.Invitation, error)
	TransitionWithReason(ctx context.Context, id int64, expected, next userdata.InvitationStatus, reason string) (*userdata.Invitation, error)
}

// TeamService is the external membership collaborator. Membership changes are
// side effects of the workflow, never part of its state.
type TeamService interface {
	IsEligibleInviter(ctx context.Context, teamId, userId int64) (bool, error)
	HasNoTeam(ctx context.Context, userId int64) (bool, error)
	AddMember(ctx context.Context, teamId, userId int64) error
}

// Notifier delivers transition notifications. Only the initial invite send is
// allowed to fail the workflow; every other kind is best-effort and must
// return nil even when delivery bounced.
type Notifier interface {
	NotifyInvitee(ctx context.Context, inv *userdata.Invitation, kind NotifyKind) error
	NotifyInviter(ctx context.Context, inv *userdata.Invitation, kind NotifyKind) error
	RequestAdminApproval(ctx context.Context, inv *userdata.Invitation) (bool, error)
}

// Event is published on every status change for downstream consumers.
type Event struct {
	InvitationId int64                     `json:"invitation_id"`
	TeamId       int64                     `json:"team_id"`
	UserId       int64                     `json:"user_id"`
	InviterId    int64                     `json:"inviter_id"`
	Status       userdata.InvitationStatus `json:"status"`
	Reason       string                    `json:"reason,omitempty"`
	At           time.Time                 `json:"at"`
}

type EventSink interface {
	Publish(ctx context.Context, event Event)
}

// Engine drives the invitation state machine. All mutations go through the
// store's CAS, so racing callers (invitee click vs expiry timer vs sweep)
// resolve without shared locks: losers observe ErrStaleTransition and treat
// it as a no-op.
type Engine struct {
	store   Store
	teams   TeamService
	limiter *Limiter
	gateway Notifier
	events  EventSink
	clock   Clock
	ttl     time.Duration
}

func NewEngine(store Store, teams TeamService, limiter *Limiter, gateway Notifier, events EventSink, clock Clock, ttl time.Duration) *Engine {
	return &Engine{
		store:   store,
		teams:   teams,
		limiter: limiter,
		gateway: gateway,
		events:  events,
		clock:   clock,
		ttl:     ttl,
	}
}

// RequestInvite validates the inviter and invitee, admits the attempt through
// the rate limiter and creates a pending invitation. If the initial invite
// message cannot be delivered the invitation is rolled forward to expired and
// the slot released: nothing may stay pending if the invitee was never
// reachably notified.
func (e *Engine) RequestInvite(ctx context.Context, teamId, inviterId, inviteeId int64) (*userdata.Invitation, error) {
	eligible, err := e.teams.IsEligibleInviter(ctx, teamId, inviterId)
	if err != nil {
		return nil, fmt.Errorf("check inviter role: %w", err)
	}
	if !eligible {
		return nil, ErrNotEligible
	}

	free, err := e.teams.HasNoTeam(ctx, inviteeId)
	if err != nil {
		return nil, fmt.Errorf("check invitee membership: %w", err)
	}
	if !free {
		return nil, ErrAlreadyMember
	}

	ok, err := e.limiter.TryReserve(ctx, inviterId)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !ok {
		return nil, ErrRateLimited
	}

	inv, err := e.store.Create(ctx, teamId, inviteeId, inviterId, e.ttl)
	if err != nil {
		e.limiter.Cancel(inviterId)
		return nil, err
	}
	e.limiter.Commit(inviterId, inv.Id)

	if err := e.gateway.NotifyInvitee(ctx, inv, NotifyInvite); err != nil {
		log.Warn().Err(err).Int64("invitation", inv.Id).Msg("Initial invite undeliverable, expiring")

		if _, terr := e.store.Transition(ctx, inv.Id, userdata.InvitationPending, userdata.InvitationExpired); terr != nil && terr != ErrStaleTransition {
			log.Error().Err(terr).Int64("invitation", inv.Id).Msg("Failed to expire undeliverable invitation")
		}
		e.limiter.Release(inviterId, inv.Id)

		return nil, fmt.Errorf("%w: %s", ErrInviteeUnreachable, err.Error())
	}

	e.publish(ctx, inv)
	e.armExpiry(inv)

	return inv, nil
}

// RecordInviteeResponse applies the invitee's accept or decline. Acceptance
// does not grant membership; it only makes the invitation eligible for admin
// review, which is requested here.
func (e *Engine) RecordInviteeResponse(ctx context.Context, id int64, accepted bool) (*userdata.Invitation, error) {
	next := userdata.InvitationDeclined
	if accepted {
		next = userdata.InvitationAccepted
	}

	inv, err := e.store.Transition(ctx, id, userdata.InvitationPending, next)
	if err != nil {
		return nil, err
	}

	e.limiter.Release(inv.InviterId, inv.Id)
	e.publish(ctx, inv)

	if !accepted {
		e.gateway.NotifyInviter(ctx, inv, NotifyDeclined)
		return inv, nil
	}

	posted, err := e.gateway.RequestAdminApproval(ctx, inv)
	if err != nil {
		log.Warn().Err(err).Int64("invitation", inv.Id).Msg("Could not post admin approval request")
	}
	if !posted {
		e.gateway.NotifyInviter(ctx, inv, NotifyNoChannel)
	}

	return inv, nil
}

// ExpireIfOverdue moves a pending invitation past its expiry to expired. Both
// the per-invitation timer and the periodic sweep call this; losing the CAS
// race to an invitee response (or to each other) is success, not an error.
func (e *Engine) ExpireIfOverdue(ctx context.Context, id int64) error {
	inv, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if inv.Status != userdata.InvitationPending || !e.clock.Now().After(inv.ExpiresAt) {
		return nil
	}

	inv, err = e.store.Transition(ctx, id, userdata.InvitationPending, userdata.InvitationExpired)
	if err != nil {
		if err == ErrStaleTransition {
			return nil
		}
		return err
	}

	e.limiter.Release(inv.InviterId, inv.Id)
	e.publish(ctx, inv)

	return nil
}

// RecordAdminResponse finalizes an accepted invitation. The status commit
// comes first; a failure adding the member afterwards is reported to the
// caller as a recoverable operational error and never rolls the status back.
func (e *Engine) RecordAdminResponse(ctx context.Context, id int64, approved bool, reason string) (*userdata.Invitation, error) {
	current, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch current.Status {
	case userdata.InvitationAccepted:
	case userdata.InvitationPending:
		return nil, ErrNotYetAccepted
	default:
		return nil, ErrStaleTransition
	}

	if !approved {
		inv, err := e.store.TransitionWithReason(ctx, id, userdata.InvitationAccepted, userdata.InvitationRejected, reason)
		if err != nil {
			return nil, err
		}

		e.publish(ctx, inv)
		e.gateway.NotifyInvitee(ctx, inv, NotifyRejected)
		e.gateway.NotifyInviter(ctx, inv, NotifyRejected)

		return inv, nil
	}

	inv, err := e.store.Transition(ctx, id, userdata.InvitationAccepted, userdata.InvitationApproved)
	if err != nil {
		return nil, err
	}

	e.publish(ctx, inv)

	memberErr := e.teams.AddMember(ctx, inv.TeamId, inv.UserId)
	if memberErr != nil {
		log.Error().Err(memberErr).Int64("invitation", inv.Id).Msg("Approved but could not add team member")
	}

	e.gateway.NotifyInvitee(ctx, inv, NotifyApproved)
	e.gateway.NotifyInviter(ctx, inv, NotifyApproved)

	if memberErr != nil {
		return inv, fmt.Errorf("add team member: %w", memberErr)
	}
	return inv, nil
}

// Sweep expires every overdue pending invitation. Runs periodically as a
// backstop for timers lost to restarts.
func (e *Engine) Sweep(ctx context.Context) error {
	overdue, err := e.store.ListOverdue(ctx, e.clock.Now())
	if err != nil {
		return err
	}

	for _, inv := range overdue {
		if err := e.ExpireIfOverdue(ctx, inv.Id); err != nil {
			log.Error().Err(err).Int64("invitation", inv.Id).Msg("Sweep failed to expire invitation")
		}
	}

	return nil
}

func (e *Engine) publish(ctx context.Context, inv *userdata.Invitation) {
	if e.events == nil {
		return
	}

	e.events.Publish(ctx, Event{
		InvitationId: inv.Id,
		TeamId:       inv.TeamId,
		UserId:       inv.UserId,
		InviterId:    inv.InviterId,
		Status:       inv.Status,
		Reason:       inv.Reason,
		At:           e.clock.Now(),
	})
}

func (e *Engine) armExpiry(inv *userdata.Invitation) {
	d := inv.ExpiresAt.Sub(e.clock.Now())
	if d < 0 {
		d = 0
	}

	id := inv.Id
	time.AfterFunc(d+time.Second, func() {
		if err := e.ExpireIfOverdue(context.Background(), id); err != nil {
			log.Error().Err(err).Int64("invitation", id).Msg("Expiry timer failed")
		}
	})
}
