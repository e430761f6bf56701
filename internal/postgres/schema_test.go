package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewDBFromSQLX(sqlx.NewDb(mockDB, "sqlmock"), logger.NewNopLogger()), mock
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name         string
		withOptional bool
		statements   []string
	}{
		{name: "required_only", withOptional: false, statements: RequiredSchema},
		{name: "with_optional", withOptional: true, statements: append(append([]string{}, RequiredSchema...), OptionalSchema...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			for _, stmt := range tt.statements {
				mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
			}

			require.NoError(t, db.Migrate(context.Background(), tt.withOptional))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrate_StopsOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(RequiredSchema[0]).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(RequiredSchema[1]).WillReturnError(errors.New("permission denied"))

	err := db.Migrate(context.Background(), true)
	require.Error(t, err)
	assert.True(t, ierr.IsDatabase(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSnapshotTx(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := db.WithSnapshotTx(context.Background(), func(ctx context.Context) error {
			tx, ok := GetTx(ctx)
			assert.True(t, ok)
			assert.NotEmpty(t, tx.ID)
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls_back_on_error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.WithSnapshotTx(context.Background(), func(ctx context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
