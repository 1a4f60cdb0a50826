package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhub/internal/domain"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, testLogger()), mock
}

func intPtr(v int) *int { return &v }

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, email, role FROM profiles WHERE id = \\$1").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "role"}).
			AddRow("user-1", "admin@example.com", intPtr(int(domain.RoleSuperAdmin))))

	profile, err := repo.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.ID)
	assert.Equal(t, "admin@example.com", profile.Email)
	assert.Equal(t, domain.RoleSuperAdmin, profile.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_NullRoleIsRegular(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, email, role FROM profiles").
		WithArgs("user-2").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "role"}).
			AddRow("user-2", "user@example.com", (*int)(nil)))

	profile, err := repo.GetProfile(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRegular, profile.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_NotFound(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, email, role FROM profiles").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_DatabaseFailure(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, email, role FROM profiles").
		WithArgs("user-1").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.GetProfile(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrDatabaseUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProfiles(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, email, role FROM profiles ORDER BY email").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "role"}).
			AddRow("user-1", "a@example.com", intPtr(int(domain.RoleSuperAdmin))).
			AddRow("user-2", "b@example.com", (*int)(nil)))

	profiles, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, domain.RoleSuperAdmin, profiles[0].Role)
	assert.Equal(t, domain.RoleRegular, profiles[1].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}
