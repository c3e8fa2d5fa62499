package invites

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rosterbot/roster-server/models/userdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	mtx     sync.Mutex
	pending map[int64][]userdata.Invitation
	calls   int
}

func (s *stubLister) ListPendingByInviter(ctx context.Context, inviterId int64) ([]userdata.Invitation, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.calls++
	return s.pending[inviterId], nil
}

func pendingRows(inviterId int64, ids ...int64) []userdata.Invitation {
	rows := make([]userdata.Invitation, len(ids))
	for i, id := range ids {
		rows[i] = userdata.Invitation{
			Id:        id,
			InviterId: inviterId,
			Status:    userdata.InvitationPending,
			ExpiresAt: time.Now().Add(time.Hour),
		}
	}
	return rows
}

func TestTryReserveWarmsColdLedgerFromStore(t *testing.T) {
	store := &stubLister{pending: map[int64][]userdata.Invitation{
		7: pendingRows(7, 1, 2, 3),
	}}
	l := NewLimiter(store, 3)

	ok, err := l.TryReserve(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok, "store already holds the maximum pending")
	assert.Equal(t, 1, store.calls)

	// Second consult must not hit the store again.
	ok, err = l.TryReserve(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, store.calls)
}

func TestTryReserveAdmitsUpToMax(t *testing.T) {
	l := NewLimiter(&stubLister{}, 3)

	for i := int64(1); i <= 3; i++ {
		ok, err := l.TryReserve(context.Background(), 7)
		require.NoError(t, err)
		require.True(t, ok)
		l.Commit(7, i)
	}

	ok, err := l.TryReserve(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok)

	l.Release(7, 2)

	ok, err = l.TryReserve(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReservationsCountBeforeCommit(t *testing.T) {
	l := NewLimiter(&stubLister{}, 3)

	for i := 0; i < 3; i++ {
		ok, err := l.TryReserve(context.Background(), 7)
		require.NoError(t, err)
		require.True(t, ok)
	}

	// All three slots are held by uncommitted reservations.
	ok, err := l.TryReserve(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok)

	l.Cancel(7)

	ok, err = l.TryReserve(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := NewLimiter(&stubLister{}, 3)

	ok, err := l.TryReserve(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	l.Commit(7, 1)

	l.Release(7, 1)
	l.Release(7, 1)
	l.Release(7, 99)
	l.Release(8, 1)

	for i := int64(2); i <= 4; i++ {
		ok, err := l.TryReserve(context.Background(), 7)
		require.NoError(t, err)
		require.True(t, ok)
		l.Commit(7, i)
	}
}

func TestConcurrentColdReservesRespectMax(t *testing.T) {
	store := &stubLister{pending: map[int64][]userdata.Invitation{
		7: pendingRows(7, 1, 2),
	}}
	l := NewLimiter(store, 3)

	const attempts = 10

	var wg sync.WaitGroup
	admitted := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.TryReserve(context.Background(), 7)
			assert.NoError(t, err)
			admitted <- ok
		}()
	}

	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}

	assert.Equal(t, 1, count, "two pending in the store leave exactly one free slot")
	assert.Equal(t, 1, store.calls, "warmup happens once even under contention")
}
