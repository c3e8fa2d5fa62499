package invites

import (
	"context"
	"sync"

	"github.com/rosterbot/roster-server/models/userdata"
)

// PendingLister is the slice of the store the limiter needs to warm a cold
// ledger.
type PendingLister interface {
	ListPendingByInviter(ctx context.Context, inviterId int64) ([]userdata.Invitation, error)
}

// Limiter bounds outstanding pending invitations per inviter. The ledger is a
// process-local admission hint over the store's pending status; correctness
// always rests on the store's invariants, never on the ledger.
type Limiter struct {
	mtx      sync.Mutex
	store    PendingLister
	max      int
	ledger   map[int64]map[int64]struct{}
	reserved map[int64]int
	warm     map[int64]struct{}
}

func NewLimiter(store PendingLister, max int) *Limiter {
	return &Limiter{
		store:    store,
		max:      max,
		ledger:   make(map[int64]map[int64]struct{}),
		reserved: make(map[int64]int),
		warm:     make(map[int64]struct{}),
	}
}

// TryReserve admits or denies a new invitation attempt. The first call for an
// inviter in a process lifetime reconciles the ledger against the store; the
// reconciliation runs under the limiter mutex so two near-simultaneous
// attempts from the same inviter cannot both slip past a cold ledger.
func (l *Limiter) TryReserve(ctx context.Context, inviterId int64) (bool, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if _, ok := l.warm[inviterId]; !ok {
		pending, err := l.store.ListPendingByInviter(ctx, inviterId)
		if err != nil {
			return false, err
		}

		ids := make(map[int64]struct{}, len(pending))
		for _, inv := range pending {
			ids[inv.Id] = struct{}{}
		}
		l.ledger[inviterId] = ids
		l.warm[inviterId] = struct{}{}
	}

	if len(l.ledger[inviterId])+l.reserved[inviterId] >= l.max {
		return false, nil
	}

	l.reserved[inviterId]++
	return true, nil
}

// Commit converts a reservation into a tracked invitation id once the store
// create succeeded.
func (l *Limiter) Commit(inviterId, invitationId int64) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if l.reserved[inviterId] > 0 {
		l.reserved[inviterId]--
	}
	if l.ledger[inviterId] == nil {
		l.ledger[inviterId] = make(map[int64]struct{})
	}
	l.ledger[inviterId][invitationId] = struct{}{}
}

// Cancel drops a reservation that never became an invitation.
func (l *Limiter) Cancel(inviterId int64) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if l.reserved[inviterId] > 0 {
		l.reserved[inviterId]--
	}
}

// Release removes an invitation id from the inviter's ledger. Releasing an id
// that is not present is a no-op.
func (l *Limiter) Release(inviterId, invitationId int64) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	delete(l.ledger[inviterId], invitationId)
}
