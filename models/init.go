package models

import (
	"github.com/rosterbot/roster-server/models/userdata"
	"github.com/uptrace/bun"
)

func InitModelRegistrations(db *bun.DB) {
	db.RegisterModel((*userdata.TeamMember)(nil))
}
