package services

import (
	"context"
	"testing"
	"time"

	"direct-messenger-backend/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectDeveloper(mock pgxmock.PgxPoolIface, actor string, ok bool) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(actor).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(ok))
}

func TestAuthorize(t *testing.T) {
	mock := newMock(t)
	expectDeveloper(mock, "dev", true)
	expectDeveloper(mock, "ghost", false)

	svc := NewAdminService(mock)
	ok, err := svc.Authorize(context.Background(), "dev")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Authorize(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Authorize(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllUsers_Forbidden(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectDeveloper(mock, "u1", false)
	mock.ExpectRollback()

	_, err := NewAdminService(mock).ListAllUsers(context.Background(), "u1")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Contains(t, err.Error(), "access denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllUsers(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectDeveloper(mock, "dev", true)
	mock.ExpectQuery("ORDER BY created_at DESC").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(userFixture{id: "u2", phone: "5550002"}.row()...).
			AddRow(userFixture{id: "dev", phone: "5550001", developer: true}.row()...))
	mock.ExpectCommit()

	users, err := NewAdminService(mock).ListAllUsers(context.Background(), "dev")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u2", users[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetBlocked(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectDeveloper(mock, "dev", true)
	mock.ExpectQuery("UPDATE users SET is_blocked").
		WithArgs(true, "u2").
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(
			"u2", "5550002", "pw", defaultFirstName, "", "user0002", false, true, false, nil, time.Now()))
	mock.ExpectCommit()

	user, err := NewAdminService(mock).SetBlocked(context.Background(), "dev", "u2", true)
	require.NoError(t, err)
	assert.True(t, user.IsBlocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetBlocked_ForbiddenLeavesTargetUntouched(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectDeveloper(mock, "u1", false)
	mock.ExpectRollback()

	_, err := NewAdminService(mock).SetBlocked(context.Background(), "u1", "u2", true)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetBlocked_UnknownTarget(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectDeveloper(mock, "dev", true)
	mock.ExpectQuery("UPDATE users SET is_blocked").WithArgs(false, "ghost").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := NewAdminService(mock).SetBlocked(context.Background(), "dev", "ghost", false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetBlocked_EmptyTarget(t *testing.T) {
	tests := []struct {
		name  string
		actor string
		dev   bool
		want  error
	}{
		{name: "non-developer", actor: "u1", dev: false, want: apperr.ErrForbidden},
		{name: "developer", actor: "dev", dev: true, want: apperr.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectBegin()
			expectDeveloper(mock, tt.actor, tt.dev)
			mock.ExpectRollback()

			_, err := NewAdminService(mock).SetBlocked(context.Background(), tt.actor, "", true)
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
