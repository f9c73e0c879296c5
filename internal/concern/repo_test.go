package concern

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewRepository(db), mock, db
}

func TestRepositoryInsert(t *testing.T) {
	repo, mock, db := setupRepo(t)
	defer db.Close()

	t.Run("assigns id and returns created_at", func(t *testing.T) {
		createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`INSERT INTO project_concerns`).
			WithArgs(
				sqlmock.AnyArg(), // generated uuid
				"G1", "Alpha", "Ana, Ben", "Srikanth", "Build fails on CI", "Sanjana",
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

		stored, err := repo.Insert(context.Background(), Concern{
			GroupNumber:        "G1",
			ProjectTitle:       "Alpha",
			StudentNames:       "Ana, Ben",
			MentorName:         "Srikanth",
			ConcernDescription: "Build fails on CI",
			PreferredMentor:    "Sanjana",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, stored.ID)
		assert.Equal(t, createdAt, stored.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("surfaces write failures", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO project_concerns`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Insert(context.Background(), Concern{GroupNumber: "G1"})
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryListAll(t *testing.T) {
	repo, mock, db := setupRepo(t)
	defer db.Close()

	cols := []string{"id", "created_at", "group_number", "project_title", "student_names", "mentor_name", "concern_description", "preferred_mentor"}

	t.Run("returns rows in backend order", func(t *testing.T) {
		newer := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
		older := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT id, created_at, group_number`).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("c2", newer, "G2", "Beta", "Cleo", "Sanjana", "stuck", "Sanjana").
				AddRow("c1", older, "G1", "Alpha", "Ana, Ben", "Srikanth", "help", "Srikanth"))

		rows, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "c2", rows[0].ID)
		assert.Equal(t, "c1", rows[1].ID)
		assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty list for no rows", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, created_at, group_number`).
			WillReturnRows(sqlmock.NewRows(cols))

		rows, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("surfaces query failures", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, created_at, group_number`).
			WillReturnError(errors.New("timeout"))

		_, err := repo.ListAll(context.Background())
		require.Error(t, err)
	})
}
