package payment

import (
	"context"
	"database/sql"
	"errors"
)

// Repository is the reconciliation journal. Rows are written when a payer
// may have been charged but verification did not succeed.
type Repository interface {
	SaveVerificationFailure(ctx context.Context, f *Failure) (id int64, isDuplicate bool, err error)
	ListVerificationFailures(ctx context.Context, limit int) ([]Failure, error)
	MarkFailureResolved(ctx context.Context, id int64, note string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveVerificationFailure(ctx context.Context, f *Failure) (int64, bool, error) {
	const q = `
	INSERT INTO payment_verification_failures (
		order_id,
		payment_id,
		signature,
		amount,
		currency,
		payer_name,
		payer_email,
		payer_phone,
		reason
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (order_id, payment_id)
	DO NOTHING
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		q,
		f.OrderID,
		f.PaymentID,
		f.Signature,
		f.Amount,
		f.Currency,
		f.PayerName,
		f.PayerEmail,
		f.PayerPhone,
		f.Reason,
	).Scan(&id)

	if err != nil {
		// Same callback reported twice
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		return 0, false, err
	}

	return id, false, nil
}

func (r *repository) ListVerificationFailures(ctx context.Context, limit int) ([]Failure, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	const q = `
	SELECT id, order_id, payment_id, signature, amount, currency,
		payer_name, payer_email, payer_phone, reason, created_at
	FROM payment_verification_failures
	WHERE resolved_at IS NULL
	ORDER BY created_at DESC
	LIMIT $1;
	`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(
			&f.ID, &f.OrderID, &f.PaymentID, &f.Signature, &f.Amount, &f.Currency,
			&f.PayerName, &f.PayerEmail, &f.PayerPhone, &f.Reason, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

func (r *repository) MarkFailureResolved(ctx context.Context, id int64, note string) error {
	const q = `
	UPDATE payment_verification_failures
	SET resolved_at = now(), resolution_note = $2
	WHERE id = $1 AND resolved_at IS NULL;
	`

	res, err := r.db.ExecContext(ctx, q, id, note)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
