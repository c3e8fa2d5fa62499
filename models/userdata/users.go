package userdata

import (
	"strconv"

	"github.com/uptrace/bun"
)

// User mirrors a chat-platform account. Id is the platform snowflake, not
// assigned by us.
type User struct {
	bun.BaseModel `bun:"userdata.users"`

	Id          int64  `bun:",pk" json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
	Teams       []Team `bun:"m2m:userdata.team_members,join:Users=Teams" json:"teams,omitempty"`
}

func (user *User) Mention() string {
	return "<@" + strconv.FormatInt(user.Id, 10) + ">"
}
