package repos

import (
	"context"
	"database/sql"

	"github.com/rosterbot/roster-server/models/userdata"
	"github.com/uptrace/bun"
)

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (c *UserRepo) GetUser(ctx context.Context, id int64) (*userdata.User, error) {
	user := new(userdata.User)

	err := c.db.NewSelect().Model(user).Where(`"user"."id" = ?`, id).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

// UpsertUser records the chat-platform identity the first time it is seen and
// refreshes names after.
func (c *UserRepo) UpsertUser(ctx context.Context, user userdata.User) error {
	_, err := c.db.NewInsert().Model(&user).
		On("CONFLICT (id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("display_name = EXCLUDED.display_name").
		Exec(ctx)

	return err
}

func (c *UserRepo) SetVerified(ctx context.Context, id int64, verified bool) error {
	_, err := c.db.NewUpdate().Model((*userdata.User)(nil)).
		Set("verified = ?", verified).
		Where("id = ?", id).
		Exec(ctx)

	return err
}
