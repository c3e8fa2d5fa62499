package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rosterbot/roster-server/invites"
	"github.com/rosterbot/roster-server/models/userdata"
	"github.com/rs/zerolog/log"
)

// Message is the delivery payload handed to the chat front-end; rendering is
// its problem, not ours.
type Message struct {
	Kind         invites.NotifyKind `json:"kind"`
	InvitationId int64              `json:"invitation_id"`
	Title        string             `json:"title"`
	Body         string             `json:"body"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
}

type Messenger interface {
	SendDirect(ctx context.Context, userId int64, msg Message) error
	SendToChannel(ctx context.Context, channelId int64, msg Message) error
}

// Mailer is the fallback for informational sends when a direct chat message
// bounces.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type TeamLookup interface {
	GetTeam(ctx context.Context, id int64) (*userdata.Team, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*userdata.User, error)
}

type ChannelConfig interface {
	ApprovalChannel(ctx context.Context, guildId int64) (int64, error)
}

// ApprovalRequest is the ephemeral projection of an accepted invitation shown
// to admins. It is derived on demand and never stored.
type ApprovalRequest struct {
	InvitationId int64     `json:"invitation_id"`
	TeamName     string    `json:"team_name"`
	Invitee      string    `json:"invitee"`
	Inviter      string    `json:"inviter"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Gateway decides what to tell which party on each transition. Every send is
// fire-and-forget except the initial invite: the workflow cannot start
// without first contact, so that one error propagates.
type Gateway struct {
	messenger Messenger
	mailer    Mailer
	teams     TeamLookup
	users     UserLookup
	configs   ChannelConfig
}

func NewGateway(messenger Messenger, mailer Mailer, teams TeamLookup, users UserLookup, configs ChannelConfig) *Gateway {
	return &Gateway{
		messenger: messenger,
		mailer:    mailer,
		teams:     teams,
		users:     users,
		configs:   configs,
	}
}

func (g *Gateway) NotifyInvitee(ctx context.Context, inv *userdata.Invitation, kind invites.NotifyKind) error {
	team, inviter := g.teamName(ctx, inv.TeamId), g.userName(ctx, inv.InviterId)

	msg := Message{Kind: kind, InvitationId: inv.Id}

	switch kind {
	case invites.NotifyInvite:
		expires := inv.ExpiresAt
		msg.Title = "Team Invitation from " + team
		msg.Body = fmt.Sprintf("%s has invited you to join their team '%s'.", inviter, team)
		msg.ExpiresAt = &expires
	case invites.NotifyApproved:
		msg.Body = fmt.Sprintf("Your request to join team '%s' has been approved by the admins!", team)
	case invites.NotifyRejected:
		msg.Body = fmt.Sprintf("Your invitation to join team '%s' was not approved by the admins.", team)
		if inv.Reason != "" {
			msg.Body += " Reason: " + inv.Reason
		}
	default:
		return fmt.Errorf("unknown invitee notification kind %q", kind)
	}

	err := g.messenger.SendDirect(ctx, inv.UserId, msg)
	if kind == invites.NotifyInvite {
		return err
	}

	g.degrade(ctx, inv.UserId, msg, err)
	return nil
}

func (g *Gateway) NotifyInviter(ctx context.Context, inv *userdata.Invitation, kind invites.NotifyKind) error {
	team, invitee := g.teamName(ctx, inv.TeamId), g.userName(ctx, inv.UserId)

	msg := Message{Kind: kind, InvitationId: inv.Id}

	switch kind {
	case invites.NotifyDeclined:
		msg.Body = fmt.Sprintf("%s has declined your invitation to join '%s'", invitee, team)
	case invites.NotifyApproved:
		msg.Body = fmt.Sprintf("%s has been added to your team '%s'!", invitee, team)
	case invites.NotifyRejected:
		msg.Body = fmt.Sprintf("Your invitation for %s to join team '%s' was not approved by the admins.", invitee, team)
		if inv.Reason != "" {
			msg.Body += " Reason: " + inv.Reason
		}
	case invites.NotifyNoChannel:
		msg.Body = "No team invitation approval channel has been set up. Please ask an admin to register one."
	default:
		return fmt.Errorf("unknown inviter notification kind %q", kind)
	}

	err := g.messenger.SendDirect(ctx, inv.InviterId, msg)
	g.degrade(ctx, inv.InviterId, msg, err)

	return nil
}

// RequestAdminApproval posts the approval request to the guild's configured
// channel. Returns false when no channel is registered.
func (g *Gateway) RequestAdminApproval(ctx context.Context, inv *userdata.Invitation) (bool, error) {
	team, err := g.teams.GetTeam(ctx, inv.TeamId)
	if err != nil {
		return false, fmt.Errorf("resolve team: %w", err)
	}
	if team == nil {
		return false, fmt.Errorf("team %d not found", inv.TeamId)
	}

	channelId, err := g.configs.ApprovalChannel(ctx, team.GuildId)
	if err != nil {
		return false, fmt.Errorf("resolve approval channel: %w", err)
	}
	if channelId == 0 {
		return false, nil
	}

	request := ApprovalRequest{
		InvitationId: inv.Id,
		TeamName:     team.Name,
		Invitee:      g.userName(ctx, inv.UserId),
		Inviter:      g.userName(ctx, inv.InviterId),
		ExpiresAt:    inv.ExpiresAt,
	}

	expires := inv.ExpiresAt
	msg := Message{
		Kind:         "approval_request",
		InvitationId: inv.Id,
		Title:        "Team Invitation Approval Request",
		Body:         fmt.Sprintf("%s wants to invite %s to join team '%s'.", request.Inviter, request.Invitee, request.TeamName),
		ExpiresAt:    &expires,
	}

	if err := g.messenger.SendToChannel(ctx, channelId, msg); err != nil {
		return false, fmt.Errorf("post approval request: %w", err)
	}

	return true, nil
}

// degrade logs a bounced informational send and tries email when an address
// is on file.
func (g *Gateway) degrade(ctx context.Context, userId int64, msg Message, err error) {
	if err == nil {
		return
	}

	log.Warn().Err(err).Int64("user", userId).Str("kind", string(msg.Kind)).Msg("Direct notification undeliverable")

	if g.mailer == nil {
		return
	}

	user, uerr := g.users.GetUser(ctx, userId)
	if uerr != nil || user == nil || user.Email == "" {
		return
	}

	subject := msg.Title
	if subject == "" {
		subject = "Team invitation update"
	}

	if merr := g.mailer.Send(ctx, user.Email, subject, msg.Body); merr != nil {
		log.Warn().Err(merr).Int64("user", userId).Msg("Email fallback failed")
	}
}

func (g *Gateway) teamName(ctx context.Context, teamId int64) string {
	team, err := g.teams.GetTeam(ctx, teamId)
	if err != nil || team == nil {
		return "Team (ID: " + strconv.FormatInt(teamId, 10) + ")"
	}
	return team.Name
}

func (g *Gateway) userName(ctx context.Context, userId int64) string {
	user, err := g.users.GetUser(ctx, userId)
	if err != nil || user == nil {
		return "User (ID: " + strconv.FormatInt(userId, 10) + ")"
	}
	return user.Mention()
}
