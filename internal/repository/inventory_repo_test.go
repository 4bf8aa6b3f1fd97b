package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"farmer-admin/internal/model"
)

// newMockInventoryRepo opens gorm with the postgres dialect over a mocked connection.
func newMockInventoryRepo(t *testing.T) (InventoryRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewInventoryRepo(gormDB), mock, mockDB
}

func TestInventoryRepo_FindByIDForUpdate(t *testing.T) {
	t.Run("locks the row on postgres", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepo(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "category", "type", "specification", "quantity", "status"}).
			AddRow(7, "motor", "AC", "5HP", 12, "active")
		mock.ExpectQuery(`SELECT \* FROM "inventory" WHERE .*"inventory"\."id" = \$1.* FOR UPDATE`).
			WillReturnRows(rows)

		item, err := repo.FindByIDForUpdate(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, uint(7), item.ID)
		assert.Equal(t, 12, item.Quantity)
		assert.Equal(t, model.StatusActive, item.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row maps to ErrNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepo(t)
		defer mockDB.Close()

		mock.ExpectQuery(`FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		item, err := repo.FindByIDForUpdate(context.Background(), 99)

		assert.Nil(t, item)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock timeout maps to ErrStorageConflict", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepo(t)
		defer mockDB.Close()

		mock.ExpectQuery(`FOR UPDATE`).
			WillReturnError(&pgconn.PgError{Code: "55P03", Message: "could not obtain lock on row"})

		_, err := repo.FindByIDForUpdate(context.Background(), 7)

		assert.ErrorIs(t, err, ErrStorageConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInventoryRepo_ApplyQuantity(t *testing.T) {
	t.Run("updates when the expected quantity matches", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepo(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "inventory" SET .* WHERE \(id = \$\d+ AND quantity = \$\d+\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyQuantity(context.Background(), 7, 12, 4, model.StatusActive, "admin")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching row is a storage conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepo(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "inventory" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ApplyQuantity(context.Background(), 7, 12, 4, model.StatusActive, "admin")

		assert.ErrorIs(t, err, ErrStorageConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure is a storage conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockInventoryRepo(t)
		defer mockDB.Close()

		pgErr := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		mock.ExpectExec(`UPDATE "inventory" SET`).
			WillReturnError(pgErr)

		err := repo.ApplyQuantity(context.Background(), 7, 12, 0, model.StatusOutOfStock, "admin")

		assert.ErrorIs(t, err, ErrStorageConflict)
		var got *pgconn.PgError
		require.True(t, errors.As(err, &got))
		assert.Equal(t, "40001", got.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTranslateError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"wrapped record not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, ErrDuplicate},
		{"foreign key", gorm.ErrForeignKeyViolated, ErrReferenced},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, ErrStorageConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, ErrStorageConflict},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, ErrStorageConflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, ErrReferenced},
		{"other sqlstate", &pgconn.PgError{Code: "22001"}, nil},
		{"unknown error", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			switch {
			case tt.in == nil:
				assert.NoError(t, got)
			case tt.want == nil:
				assert.Same(t, tt.in, got)
			default:
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}
