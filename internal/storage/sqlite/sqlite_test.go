package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-admin/internal/models"
	"github.com/magabrotheeeer/subscription-admin/internal/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func grantFor(userID int64, start, end time.Time, ref string) storage.Grant {
	return storage.Grant{
		UserID:        userID,
		Start:         start,
		End:           end,
		Amount:        399.0,
		Currency:      "PKR",
		PaymentMethod: "admin_grant",
		TransactionID: ref,
		Status:        "completed",
	}
}

func TestAddUser_UpsertKeepsSubscription(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, st.AddUser(ctx, 1, "alice", "Alice", ""))

	now := time.Now().UTC().Truncate(time.Second)
	end := now.AddDate(0, 0, 21)
	require.NoError(t, st.GrantSubscription(ctx, grantFor(1, now, end, "REF1")))

	// Повторный upsert обновляет профиль, подписку не трогает.
	require.NoError(t, st.AddUser(ctx, 1, "alice_new", "Alice", "Smith"))

	u, err := st.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice_new", u.Username)
	assert.Equal(t, "Smith", u.LastName)
	assert.Equal(t, models.StatusActive, u.Status)
	require.NotNil(t, u.EndDate)
	assert.WithinDuration(t, end, *u.EndDate, time.Second)
}

func TestGetUser_NotFound(t *testing.T) {
	st := newTestStorage(t)

	_, err := st.GetUser(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestGrantSubscription_WritesPaymentAtomically(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, st.AddUser(ctx, 1, "alice", "Alice", ""))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.GrantSubscription(ctx, grantFor(1, now, now.AddDate(0, 0, 21), "REF1")))

	p, err := st.LastPayment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "REF1", p.TransactionID)
	assert.Equal(t, 399.0, p.Amount)
	assert.Equal(t, "completed", p.Status)

	var count int
	require.NoError(t, st.DB.QueryRow(`SELECT COUNT(*) FROM payments WHERE user_id = 1`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGrantSubscription_UnknownUser(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	now := time.Now().UTC()
	err := st.GrantSubscription(ctx, grantFor(404, now, now.AddDate(0, 0, 21), "REF404"))
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	// Транзакция откатилась: платёж не записан.
	var count int
	require.NoError(t, st.DB.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&count))
	assert.Zero(t, count)
}

func TestListActiveUsers_FiltersStaleWindows(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, st.AddUser(ctx, 1, "fresh", "", ""))
	require.NoError(t, st.AddUser(ctx, 2, "stale", "", ""))
	require.NoError(t, st.AddUser(ctx, 3, "never", "", ""))

	require.NoError(t, st.GrantSubscription(ctx, grantFor(1, now, now.Add(24*time.Hour), "R1")))
	// Окно уже в прошлом, хотя статус остался active.
	require.NoError(t, st.GrantSubscription(ctx, grantFor(2, now.AddDate(0, 0, -22), now.Add(-time.Second), "R2")))

	active, err := st.ListActiveUsers(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(1), active[0].UserID)
}

func TestListActiveUsers_NonUTCClock(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	karachi := time.FixedZone("PKT", 5*60*60)

	require.NoError(t, st.AddUser(ctx, 1, "soon", "", ""))
	require.NoError(t, st.AddUser(ctx, 2, "stale", "", ""))
	require.NoError(t, st.AddUser(ctx, 3, "zoned", "", ""))

	// Окно истекает через 30 минут: пользователь активен независимо от
	// пояса, в котором выражена метка now.
	require.NoError(t, st.GrantSubscription(ctx, grantFor(1, now.Add(-time.Hour), now.Add(30*time.Minute), "R1")))
	// Истёкшее окно не оживает от смещения пояса.
	require.NoError(t, st.GrantSubscription(ctx, grantFor(2, now.Add(-48*time.Hour), now.Add(-time.Minute), "R2")))
	// Даты окна при выдаче тоже могут прийти в локальном поясе.
	require.NoError(t, st.GrantSubscription(ctx, grantFor(3, now.In(karachi), now.Add(30*time.Minute).In(karachi), "R3")))

	active, err := st.ListActiveUsers(ctx, now.In(karachi))
	require.NoError(t, err)
	require.Len(t, active, 2)

	ids := []int64{active[0].UserID, active[1].UserID}
	assert.ElementsMatch(t, []int64{1, 3}, ids)

	active, err = st.ListActiveUsers(ctx, now)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestListActiveUsers_NullEndDateIsIndefinite(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, st.AddUser(ctx, 1, "forever", "", ""))
	require.NoError(t, st.UpdateSubscriptionStatus(ctx, 1, models.StatusActive, nil, nil))

	active, err := st.ListActiveUsers(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Nil(t, active[0].EndDate)
}

func TestExpireSubscription_KeepsDates(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, st.AddUser(ctx, 1, "alice", "", ""))
	now := time.Now().UTC().Truncate(time.Second)
	end := now.AddDate(0, 0, 21)
	require.NoError(t, st.GrantSubscription(ctx, grantFor(1, now, end, "REF1")))

	require.NoError(t, st.ExpireSubscription(ctx, 1))

	u, err := st.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, u.Status)
	require.NotNil(t, u.EndDate)
	assert.WithinDuration(t, end, *u.EndDate, time.Second)

	assert.ErrorIs(t, st.ExpireSubscription(ctx, 404), storage.ErrUserNotFound)
}

func TestLogUsage_IncrementsCounter(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, st.AddUser(ctx, 1, "alice", "", ""))
	require.NoError(t, st.LogUsage(ctx, 1, "search", true))
	require.NoError(t, st.LogUsage(ctx, 1, "search", false))

	u, err := st.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, u.QueriesUsed)

	var logged int
	require.NoError(t, st.DB.QueryRow(`SELECT COUNT(*) FROM usage_logs WHERE user_id = 1`).Scan(&logged))
	assert.Equal(t, 2, logged)
}

func TestLastPayment_NewestWins(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	_, err := st.LastPayment(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrPaymentNotFound)

	require.NoError(t, st.AddUser(ctx, 1, "alice", "", ""))
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.GrantSubscription(ctx, grantFor(1, now, now.AddDate(0, 0, 21), "OLD")))
	require.NoError(t, st.GrantSubscription(ctx, grantFor(1, now, now.AddDate(0, 0, 42), "NEW")))

	p, err := st.LastPayment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "NEW", p.TransactionID)
}

func TestCountUsers(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	count, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, st.AddUser(ctx, 1, "a", "", ""))
	require.NoError(t, st.AddUser(ctx, 2, "b", "", ""))
	require.NoError(t, st.AddUser(ctx, 2, "b2", "", ""))

	count, err = st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestContextCancellation(t *testing.T) {
	st := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, st.AddUser(ctx, 1, "a", "", ""))
	_, err := st.GetUser(ctx, 1)
	assert.Error(t, err)
}
