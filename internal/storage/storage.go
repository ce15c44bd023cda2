// Package storage определяет контракт хранилища пользователей и подписок.
// Контракт реализуют два взаимозаменяемых бэкенда: облачный PostgreSQL
// (internal/storage/postgres) и встраиваемый файловый SQLite
// (internal/storage/sqlite). Выбор бэкенда делается один раз при старте
// процесса и дальше не меняется.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/subscription-admin/internal/models"
)

// ErrUserNotFound возвращается при точечном чтении отсутствующего
// пользователя. Отсутствие — не ошибка ввода-вывода, вызывающая сторона
// обязана различать эти случаи.
var ErrUserNotFound = errors.New("user not found")

// ErrPaymentNotFound возвращается, когда у пользователя нет ни одной
// записи о платеже.
var ErrPaymentNotFound = errors.New("payment not found")

// Grant — параметры выдачи подписки. Даты и референс вычисляет сервисный
// слой, бэкенд записывает обновление пользователя и запись о платеже
// одной транзакцией.
type Grant struct {
	UserID        int64
	Start         time.Time
	End           time.Time
	Amount        float64
	Currency      string
	PaymentMethod string
	TransactionID string
	Status        string
}

// Store — контракт хранилища. Оба бэкенда реализуют его одинаково,
// вызывающая сторона зависит только от интерфейса.
type Store interface {
	// AddUser выполняет идемпотентный upsert: повторное добавление обновляет
	// поля профиля и updated_at, но никогда не трогает состояние подписки.
	AddUser(ctx context.Context, id int64, username, firstName, lastName string) error
	// GetUser возвращает пользователя по id или ErrUserNotFound.
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// UpdateSubscriptionStatus меняет статус подписки. Ненулевые start и end
	// записываются вместе со статусом; при nil даты остаются как были.
	UpdateSubscriptionStatus(ctx context.Context, id int64, status models.SubscriptionStatus, start, end *time.Time) error
	// GrantSubscription переводит пользователя в active и добавляет запись
	// о платеже в одной транзакции.
	GrantSubscription(ctx context.Context, grant Grant) error
	// ExpireSubscription принудительно ставит статус expired, исторические
	// даты окна не стираются.
	ExpireSubscription(ctx context.Context, id int64) error
	// ListAllUsers возвращает всех пользователей, новые (по created_at) первыми.
	ListAllUsers(ctx context.Context) ([]*models.User, error)
	// ListActiveUsers возвращает пользователей со статусом active, у которых
	// окно подписки не закрыто на момент now (NULL-окончание считается
	// бессрочной подпиской). Фильтр выполняется на стороне SQL.
	ListActiveUsers(ctx context.Context, now time.Time) ([]*models.User, error)
	// CountUsers возвращает общее число пользователей.
	CountUsers(ctx context.Context) (int, error)
	// LastPayment возвращает последнюю запись о платеже пользователя
	// или ErrPaymentNotFound.
	LastPayment(ctx context.Context, id int64) (*models.Payment, error)
	// LogUsage добавляет запись журнала и увеличивает счётчик queries_used
	// одной транзакцией.
	LogUsage(ctx context.Context, id int64, endpoint string, success bool) error
	// Close освобождает соединение с бэкендом.
	Close() error
}
