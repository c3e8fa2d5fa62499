package userdata

import "github.com/uptrace/bun"

type MemberRole string

const (
	RoleCaptain     MemberRole = "captain"
	RoleViceCaptain MemberRole = "vice_captain"
	RoleMember      MemberRole = "member"
)

type TeamMember struct {
	bun.BaseModel `bun:"userdata.team_members"`

	TeamId      int64      `json:"team_id"`
	Teams       *Team      `bun:"rel:belongs-to,join:team_id=id" json:"-"`
	UserId      int64      `json:"user_id"`
	Users       *User      `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	Role        MemberRole `json:"role"`
	DisplayName string     `json:"display_name,omitempty"`
}
