package userdata

import "github.com/uptrace/bun"

type Team struct {
	bun.BaseModel `bun:"userdata.teams"`

	Id      int64  `bun:",pk,autoincrement" json:"id"`
	GuildId int64  `json:"guild_id"`
	Name    string `json:"name"`
	RoleId  int64  `json:"role_id,omitempty"`
	Users   []User `bun:"m2m:userdata.team_members,join:Teams=Users" json:"users,omitempty"`
}
