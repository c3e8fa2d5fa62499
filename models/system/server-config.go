package system

import "github.com/uptrace/bun"

// ServerConfig holds per-guild operator settings. ApprovalChannelId is where
// accepted invitations are posted for admin review; zero means unset.
type ServerConfig struct {
	bun.BaseModel `bun:"system.server_configs"`

	GuildId           int64 `bun:",pk" json:"guild_id"`
	ApprovalChannelId int64 `json:"approval_channel_id,omitempty"`
}
