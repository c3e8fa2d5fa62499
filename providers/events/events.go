package events

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/rosterbot/roster-server/invites"
	"github.com/rs/zerolog/log"
)

const channel = "invitations.events"

// Publisher fans invitation lifecycle events out over redis pub/sub for the
// chat front-end (role assignment, message edits). Fire-and-forget: a lost
// event never fails the workflow.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, event invites.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Int64("invitation", event.InvitationId).Msg("Could not marshal invitation event")
		return
	}

	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Warn().Err(err).Int64("invitation", event.InvitationId).Msg("Could not publish invitation event")
	}
}
