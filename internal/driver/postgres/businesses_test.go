package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhub/internal/domain"
)

func strPtr(s string) *string { return &s }

func businessRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "avatar_url", "city", "state", "permalink"})
}

func TestListDashboardBusinesses(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, name, avatar_url, city, state, permalink.*FROM businesses.*WHERE dashboard_enabled = TRUE.*ORDER BY name").
		WillReturnRows(businessRows().
			AddRow("b1", "Acme Plumbing", strPtr("https://cdn/logo1.png"), strPtr("Austin"), strPtr("TX"), strPtr("acme")).
			AddRow("b2", "Zenith HVAC", (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil)))

	businesses, err := repo.ListDashboardBusinesses(ctx)
	require.NoError(t, err)
	require.Len(t, businesses, 2)

	assert.Equal(t, domain.AccessibleBusiness{
		ID:        "b1",
		Name:      "Acme Plumbing",
		AvatarURL: "https://cdn/logo1.png",
		City:      "Austin",
		State:     "TX",
		Permalink: "acme",
	}, businesses[0])
	assert.Equal(t, "b2", businesses[1].ID)
	assert.Empty(t, businesses[1].City, "null columns read as empty strings")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBusinessesForUser(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT b.id, b.name.*FROM profile_businesses pb.*INNER JOIN businesses b.*ORDER BY pb.assigned_at").
		WithArgs("user-1").
		WillReturnRows(businessRows().
			AddRow("b2", "Second Assigned", (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil)).
			AddRow("b1", "First Assigned", (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil)))

	businesses, err := repo.ListBusinessesForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, businesses, 2)
	assert.Equal(t, "b2", businesses[0].ID, "assignment order is preserved")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBusinessesForUser_DatabaseFailure(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT b.id, b.name").
		WithArgs("user-1").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.ListBusinessesForUser(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrDatabaseUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignBusiness(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO profile_businesses.*ON CONFLICT \\(profile_id, business_id\\) DO NOTHING").
		WithArgs("user-1", "b1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.AssignBusiness(ctx, "user-1", "b1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnassignBusiness(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM profile_businesses").
		WithArgs("user-1", "b1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	// Revoking an absent grant is not an error.
	require.NoError(t, repo.UnassignBusiness(ctx, "user-1", "b1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
