package userdata

import (
	"time"

	"github.com/uptrace/bun"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
	InvitationApproved InvitationStatus = "approved"
	InvitationRejected InvitationStatus = "rejected"
)

// Terminal reports whether no further transition is permitted from s.
func (s InvitationStatus) Terminal() bool {
	switch s {
	case InvitationDeclined, InvitationExpired, InvitationApproved, InvitationRejected:
		return true
	}
	return false
}

type Invitation struct {
	bun.BaseModel `bun:"userdata.invitations"`

	Id        int64            `bun:",pk,autoincrement" json:"id"`
	TeamId    int64            `json:"team_id"`
	Team      *Team            `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty"`
	UserId    int64            `json:"user_id"`
	User      *User            `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	InviterId int64            `json:"inviter_id"`
	Inviter   *User            `bun:"rel:belongs-to,join:inviter_id=id" json:"inviter,omitempty"`
	CreatedAt time.Time        `bun:",nullzero,default:now()" json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
	Status    InvitationStatus `json:"status"`
	Reason    string           `json:"reason,omitempty"`
}
