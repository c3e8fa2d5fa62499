package repos

import (
	"context"
	"database/sql"

	"github.com/rosterbot/roster-server/models/userdata"
	"github.com/uptrace/bun"
)

type TeamRepo struct {
	db *bun.DB
}

func NewTeamRepo(db *bun.DB) *TeamRepo {
	return &TeamRepo{db: db}
}

func (c *TeamRepo) GetTeam(ctx context.Context, id int64) (*userdata.Team, error) {
	team := new(userdata.Team)

	err := c.db.NewSelect().Model(team).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return team, nil
}

func (c *TeamRepo) GetTeamByName(ctx context.Context, guildId int64, name string) (*userdata.Team, error) {
	team := new(userdata.Team)

	err := c.db.NewSelect().Model(team).
		Where("guild_id = ?", guildId).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return team, nil
}

// IsEligibleInviter reports whether the user holds a captain or vice-captain
// role on the team.
func (c *TeamRepo) IsEligibleInviter(ctx context.Context, teamId, userId int64) (bool, error) {
	return c.db.NewSelect().Model((*userdata.TeamMember)(nil)).
		Where("team_id = ?", teamId).
		Where("user_id = ?", userId).
		Where("role IN (?)", bun.In([]userdata.MemberRole{userdata.RoleCaptain, userdata.RoleViceCaptain})).
		Exists(ctx)
}

func (c *TeamRepo) HasNoTeam(ctx context.Context, userId int64) (bool, error) {
	exists, err := c.db.NewSelect().Model((*userdata.TeamMember)(nil)).
		Where("user_id = ?", userId).
		Exists(ctx)
	if err != nil {
		return false, err
	}

	return !exists, nil
}

func (c *TeamRepo) AddMember(ctx context.Context, teamId, userId int64) error {
	_, err := c.db.NewInsert().Model(&userdata.TeamMember{
		TeamId: teamId,
		UserId: userId,
		Role:   userdata.RoleMember,
	}).Ignore().Exec(ctx)

	return err
}
