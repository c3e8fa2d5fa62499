package repos

import (
	"context"
	"database/sql"
	"time"

	"github.com/rosterbot/roster-server/invites"
	"github.com/rosterbot/roster-server/models/userdata"
	"github.com/uptrace/bun"
)

// InvitationRepo is the durable invitation store. Rows are never deleted;
// terminal records stay for audit.
type InvitationRepo struct {
	db *bun.DB
}

func NewInvitationRepo(db *bun.DB) *InvitationRepo {
	return &InvitationRepo{db: db}
}

var openStatuses = []userdata.InvitationStatus{userdata.InvitationPending, userdata.InvitationAccepted}

// Create inserts a pending invitation. The one-open-invitation-per-invitee
// invariant is checked inside the transaction; a partial unique index on
// (user_id) WHERE status IN ('pending','accepted') backs it at the schema
// level.
func (c *InvitationRepo) Create(ctx context.Context, teamId, inviteeId, inviterId int64, ttl time.Duration) (*userdata.Invitation, error) {
	inv := &userdata.Invitation{
		TeamId:    teamId,
		UserId:    inviteeId,
		InviterId: inviterId,
		ExpiresAt: time.Now().UTC().Add(ttl),
		Status:    userdata.InvitationPending,
	}

	err := c.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		open, err := tx.NewSelect().Model((*userdata.Invitation)(nil)).
			Where("user_id = ?", inviteeId).
			Where("status IN (?)", bun.In(openStatuses)).
			Count(ctx)
		if err != nil {
			return err
		}
		if open > 0 {
			return invites.ErrDuplicateInvitation
		}

		_, err = tx.NewInsert().Model(inv).Returning("*").Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return inv, nil
}

func (c *InvitationRepo) Get(ctx context.Context, id int64) (*userdata.Invitation, error) {
	inv := new(userdata.Invitation)

	err := c.db.NewSelect().Model(inv).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, invites.ErrNotFound
		}
		return nil, err
	}

	return inv, nil
}

func (c *InvitationRepo) ListPendingByInvitee(ctx context.Context, inviteeId int64) ([]userdata.Invitation, error) {
	var list []userdata.Invitation

	err := c.db.NewSelect().Model(&list).
		Where("user_id = ?", inviteeId).
		Where("status = ?", userdata.InvitationPending).
		Scan(ctx)

	return list, err
}

func (c *InvitationRepo) ListPendingByInviter(ctx context.Context, inviterId int64) ([]userdata.Invitation, error) {
	var list []userdata.Invitation

	err := c.db.NewSelect().Model(&list).
		Where("inviter_id = ?", inviterId).
		Where("status = ?", userdata.InvitationPending).
		Scan(ctx)

	return list, err
}

func (c *InvitationRepo) ListOverdue(ctx context.Context, now time.Time) ([]userdata.Invitation, error) {
	var list []userdata.Invitation

	err := c.db.NewSelect().Model(&list).
		Where("status = ?", userdata.InvitationPending).
		Where("expires_at < ?", now).
		Scan(ctx)

	return list, err
}

// Transition applies a compare-and-swap on the stored status. The guarded
// UPDATE serializes transitions per invitation at the row level; zero rows
// affected means another caller got there first.
func (c *InvitationRepo) Transition(ctx context.Context, id int64, expected, next userdata.InvitationStatus) (*userdata.Invitation, error) {
	return c.transition(ctx, id, expected, next, nil)
}

func (c *InvitationRepo) TransitionWithReason(ctx context.Context, id int64, expected, next userdata.InvitationStatus, reason string) (*userdata.Invitation, error) {
	return c.transition(ctx, id, expected, next, &reason)
}

func (c *InvitationRepo) transition(ctx context.Context, id int64, expected, next userdata.InvitationStatus, reason *string) (*userdata.Invitation, error) {
	inv := new(userdata.Invitation)

	q := c.db.NewUpdate().Model(inv).
		Set("status = ?", next).
		Where("id = ? AND status = ?", id, expected).
		Returning("*")
	if reason != nil {
		q = q.Set("reason = ?", *reason)
	}

	res, err := q.Exec(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	missed := err == sql.ErrNoRows
	if !missed {
		rows, rerr := res.RowsAffected()
		if rerr != nil {
			return nil, rerr
		}
		missed = rows == 0
	}

	if missed {
		exists, err := c.db.NewSelect().Model((*userdata.Invitation)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, invites.ErrNotFound
		}

		return nil, invites.ErrStaleTransition
	}

	return inv, nil
}
