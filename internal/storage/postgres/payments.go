package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-admin/internal/models"
	"github.com/magabrotheeeer/subscription-admin/internal/storage"
)

// GrantSubscription переводит пользователя в active и записывает платёж.
// Обновление пользователя и вставка записи о платеже выполняются одной
// транзакцией: частичное применение пары невозможно.
func (s *Storage) GrantSubscription(ctx context.Context, grant storage.Grant) error {
	const op = "storage.postgres.GrantSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	updateQuery := `UPDATE users
			  SET subscription_status = $1,
			      subscription_start_date = $2,
			      subscription_end_date = $3,
			      updated_at = NOW()
			  WHERE user_id = $4`
	res, err := tx.ExecContext(ctx, updateQuery,
		models.StatusActive.String(), grant.Start, grant.End, grant.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrUserNotFound
	}

	insertQuery := `INSERT INTO payments (user_id, amount, currency, payment_method,
			      transaction_id, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW())`
	if _, err = tx.ExecContext(ctx, insertQuery,
		grant.UserID, grant.Amount, grant.Currency, grant.PaymentMethod,
		grant.TransactionID, grant.Status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LastPayment возвращает последнюю запись о платеже пользователя.
func (s *Storage) LastPayment(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.postgres.LastPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, amount, currency, payment_method,
			      transaction_id, status, created_at
			  FROM payments
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT 1`
	p := &models.Payment{}
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.UserID, &p.Amount,
		&p.Currency, &p.PaymentMethod, &p.TransactionID, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
