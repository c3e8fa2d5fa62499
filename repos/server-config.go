package repos

import (
	"context"
	"database/sql"

	models "github.com/rosterbot/roster-server/models/system"
	"github.com/uptrace/bun"
)

type ServerConfigRepo struct {
	db *bun.DB
}

func NewServerConfigRepo(db *bun.DB) *ServerConfigRepo {
	return &ServerConfigRepo{db: db}
}

// ApprovalChannel returns the configured approval channel for a guild, zero
// if none is registered.
func (c *ServerConfigRepo) ApprovalChannel(ctx context.Context, guildId int64) (int64, error) {
	config := new(models.ServerConfig)

	err := c.db.NewSelect().Model(config).Where("guild_id = ?", guildId).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}

	return config.ApprovalChannelId, nil
}

func (c *ServerConfigRepo) SetApprovalChannel(ctx context.Context, guildId, channelId int64) error {
	_, err := c.db.NewInsert().Model(&models.ServerConfig{
		GuildId:           guildId,
		ApprovalChannelId: channelId,
	}).
		On("CONFLICT (guild_id) DO UPDATE").
		Set("approval_channel_id = EXCLUDED.approval_channel_id").
		Exec(ctx)

	return err
}
