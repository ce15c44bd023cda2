package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-admin/internal/models"
	"github.com/magabrotheeeer/subscription-admin/internal/storage"
)

// GrantSubscription переводит пользователя в active и записывает платёж.
// Обновление пользователя и вставка записи о платеже выполняются одной
// транзакцией: частичное применение пары невозможно.
func (s *Storage) GrantSubscription(ctx context.Context, grant storage.Grant) error {
	const op = "storage.sqlite.GrantSubscription"
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
			  SET subscription_status = ?,
			      subscription_start_date = ?,
			      subscription_end_date = ?,
			      updated_at = ?
			  WHERE user_id = ?`
	// Даты приводятся к UTC: в SQLite они хранятся текстом и сравниваются
	// лексикографически, смешение поясов ломает фильтр активных окон.
	res, err := tx.ExecContext(ctx, updateQuery,
		models.StatusActive.String(), grant.Start.UTC(), grant.End.UTC(), time.Now().UTC(), grant.UserID)
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
			  VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err = tx.ExecContext(ctx, insertQuery,
		grant.UserID, grant.Amount, grant.Currency, grant.PaymentMethod,
		grant.TransactionID, grant.Status, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LastPayment возвращает последнюю запись о платеже пользователя.
func (s *Storage) LastPayment(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.sqlite.LastPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, amount, currency, payment_method,
			      transaction_id, status, created_at
			  FROM payments
			  WHERE user_id = ?
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

// LogUsage добавляет строку журнала использования и увеличивает счётчик
// queries_used пользователя одной транзакцией.
func (s *Storage) LogUsage(ctx context.Context, id int64, endpoint string, success bool) error {
	const op = "storage.sqlite.LogUsage"
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

	insertQuery := `INSERT INTO usage_logs (user_id, endpoint, success, timestamp)
			  VALUES (?, ?, ?, ?)`
	if _, err = tx.ExecContext(ctx, insertQuery, id, endpoint, success, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	updateQuery := `UPDATE users
			  SET queries_used = queries_used + 1,
			      updated_at = ?
			  WHERE user_id = ?`
	if _, err = tx.ExecContext(ctx, updateQuery, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
