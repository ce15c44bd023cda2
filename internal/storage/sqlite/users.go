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

// AddUser сохраняет пользователя или обновляет поля его профиля.
// Состояние подписки при повторном добавлении не сбрасывается.
func (s *Storage) AddUser(ctx context.Context, id int64, username, firstName, lastName string) error {
	const op = "storage.sqlite.AddUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (user_id, username, first_name, last_name, updated_at)
			  VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT (user_id) DO UPDATE
			  SET username = excluded.username,
			      first_name = excluded.first_name,
			      last_name = excluded.last_name,
			      updated_at = excluded.updated_at`
	if _, err := s.DB.ExecContext(ctx, query, id, username, firstName, lastName, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по его идентификатору.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.sqlite.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, username, first_name, last_name, subscription_status,
			      subscription_start_date, subscription_end_date, queries_used,
			      created_at, updated_at
			  FROM users
			  WHERE user_id = ?`
	row := s.DB.QueryRowContext(ctx, query, id)

	u, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateSubscriptionStatus обновляет статус подписки. Даты окна
// записываются только когда переданы, иначе меняется один статус.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, id int64, status models.SubscriptionStatus, start, end *time.Time) error {
	const op = "storage.sqlite.UpdateSubscriptionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var (
		res sql.Result
		err error
	)
	if start != nil && end != nil {
		query := `UPDATE users
				  SET subscription_status = ?,
				      subscription_start_date = ?,
				      subscription_end_date = ?,
				      updated_at = ?
				  WHERE user_id = ?`
		res, err = s.DB.ExecContext(ctx, query, status.String(), start.UTC(), end.UTC(), time.Now().UTC(), id)
	} else {
		query := `UPDATE users
				  SET subscription_status = ?,
				      updated_at = ?
				  WHERE user_id = ?`
		res, err = s.DB.ExecContext(ctx, query, status.String(), time.Now().UTC(), id)
	}
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
	return nil
}

// ExpireSubscription ставит статус expired, даты окна остаются как
// исторический след.
func (s *Storage) ExpireSubscription(ctx context.Context, id int64) error {
	const op = "storage.sqlite.ExpireSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = ?,
			      updated_at = ?
			  WHERE user_id = ?`
	res, err := s.DB.ExecContext(ctx, query, models.StatusExpired.String(), time.Now().UTC(), id)
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
	return nil
}

// ListAllUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListAllUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.sqlite.ListAllUsers"
	query := `SELECT user_id, username, first_name, last_name, subscription_status,
			      subscription_start_date, subscription_end_date, queries_used,
			      created_at, updated_at
			  FROM users
			  ORDER BY created_at DESC, user_id DESC`
	return s.listUsers(ctx, op, query)
}

// ListActiveUsers возвращает пользователей с действующей подпиской на
// момент now. Строки с протухшим окном отфильтровываются даже если в
// колонке статуса всё ещё записано active.
//
// go-sqlite3 хранит DATETIME текстом со смещением пояса, а сравнение в SQL
// лексикографическое, поэтому метка now приводится к UTC, как и все даты
// при записи.
func (s *Storage) ListActiveUsers(ctx context.Context, now time.Time) ([]*models.User, error) {
	const op = "storage.sqlite.ListActiveUsers"
	query := `SELECT user_id, username, first_name, last_name, subscription_status,
			      subscription_start_date, subscription_end_date, queries_used,
			      created_at, updated_at
			  FROM users
			  WHERE subscription_status = ?
			    AND (subscription_end_date IS NULL OR subscription_end_date > ?)
			  ORDER BY created_at DESC, user_id DESC`
	return s.listUsers(ctx, op, query, models.StatusActive.String(), now.UTC())
}

// CountUsers возвращает общее число пользователей.
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	const op = "storage.sqlite.CountUsers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func (s *Storage) listUsers(ctx context.Context, op, query string, args ...any) ([]*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// scanUser читает одну строку users, раскрывая nullable-поля.
func scanUser(scan func(dest ...any) error) (*models.User, error) {
	u := &models.User{}
	var (
		username, firstName, lastName sql.NullString
		status                        string
		startDate, endDate            sql.NullTime
	)
	if err := scan(&u.UserID, &username, &firstName, &lastName, &status,
		&startDate, &endDate, &u.QueriesUsed, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Username = username.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.Status = models.SubscriptionStatus(status)
	if startDate.Valid {
		t := startDate.Time
		u.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		u.EndDate = &t
	}
	return u, nil
}
