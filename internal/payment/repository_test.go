package payment

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

func sampleFailure() *Failure {
	return &Failure{
		OrderID:    "order_1",
		PaymentID:  "pay_1",
		Signature:  "sig_1",
		Amount:     19900,
		Currency:   "INR",
		PayerName:  "Asha Rao",
		PayerEmail: "asha@example.com",
		PayerPhone: "9123456789",
		Reason:     "Payment verification failed",
	}
}

func TestRepository_SaveVerificationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	f := sampleFailure()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_verification_failures`).
			WithArgs(f.OrderID, f.PaymentID, f.Signature, f.Amount, f.Currency,
				f.PayerName, f.PayerEmail, f.PayerPhone, f.Reason).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		id, dup, err := repo.SaveVerificationFailure(ctx, f)
		assert.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, int64(7), id)
	})

	t.Run("Duplicate", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_verification_failures`).
			WillReturnError(sql.ErrNoRows)

		id, dup, err := repo.SaveVerificationFailure(ctx, f)
		assert.NoError(t, err)
		assert.True(t, dup)
		assert.Zero(t, id)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_verification_failures`).
			WillReturnError(errors.New("database error"))

		_, dup, err := repo.SaveVerificationFailure(ctx, f)
		assert.Error(t, err)
		assert.False(t, dup)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListVerificationFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	columns := []string{
		"id", "order_id", "payment_id", "signature", "amount", "currency",
		"payer_name", "payer_email", "payer_phone", "reason", "created_at",
	}

	t.Run("Success", func(t *testing.T) {
		created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(columns).
			AddRow(2, "order_2", "pay_2", "sig_2", 50000, "INR", "Ravi", "ravi@example.com", "9000000000", "timeout", created).
			AddRow(1, "order_1", "pay_1", "sig_1", 19900, "INR", "Asha Rao", "asha@example.com", "9123456789", "mismatch", created)

		mock.ExpectQuery(`SELECT .* FROM payment_verification_failures`).
			WithArgs(10).
			WillReturnRows(rows)

		failures, err := repo.ListVerificationFailures(ctx, 10)
		assert.NoError(t, err)
		require.Len(t, failures, 2)
		assert.Equal(t, "order_2", failures[0].OrderID)
		assert.Equal(t, int64(19900), failures[1].Amount)
		assert.Equal(t, created, failures[1].CreatedAt)
	})

	t.Run("DefaultLimit", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM payment_verification_failures`).
			WithArgs(50).
			WillReturnRows(sqlmock.NewRows(columns))

		failures, err := repo.ListVerificationFailures(ctx, 0)
		assert.NoError(t, err)
		assert.Empty(t, failures)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM payment_verification_failures`).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.ListVerificationFailures(ctx, 10)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkFailureResolved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_verification_failures`).
			WithArgs(int64(3), "refunded").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkFailureResolved(ctx, 3, "refunded"))
	})

	t.Run("AlreadyResolved", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_verification_failures`).
			WithArgs(int64(3), "again").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkFailureResolved(ctx, 3, "again")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_verification_failures`).
			WillReturnError(errors.New("db error"))

		assert.Error(t, repo.MarkFailureResolved(ctx, 3, "x"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
