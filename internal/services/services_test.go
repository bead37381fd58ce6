package services

import (
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var userCols = []string{
	"id", "phone", "password", "first_name", "last_name", "username",
	"is_developer", "is_blocked", "is_online", "last_seen", "created_at",
}

type userFixture struct {
	id, phone, password string
	developer, online   bool
	lastSeen            *time.Time
}

func (u userFixture) row() []any {
	var ls any
	if u.lastSeen != nil {
		ls = pgtype.Timestamptz{Time: *u.lastSeen, Valid: true}
	}
	return []any{
		u.id, u.phone, u.password, defaultFirstName, "", PlaceholderUsername(u.phone),
		u.developer, false, u.online, ls, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

type published struct {
	userIDs []string
	event   Event
}

// recorder is a Notifier that keeps everything it is asked to publish
type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(userIDs []string, evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{userIDs: userIDs, event: evt})
}

func (r *recorder) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}
