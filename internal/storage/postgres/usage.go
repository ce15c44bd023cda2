package postgres

import (
	"context"
	"fmt"
)

// LogUsage добавляет строку журнала использования и увеличивает счётчик
// queries_used пользователя одной транзакцией.
func (s *Storage) LogUsage(ctx context.Context, id int64, endpoint string, success bool) error {
	const op = "storage.postgres.LogUsage"
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
			  VALUES ($1, $2, $3, NOW())`
	if _, err = tx.ExecContext(ctx, insertQuery, id, endpoint, success); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	updateQuery := `UPDATE users
			  SET queries_used = queries_used + 1,
			      updated_at = NOW()
			  WHERE user_id = $1`
	if _, err = tx.ExecContext(ctx, updateQuery, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
