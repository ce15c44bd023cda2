// Package subscription содержит бизнес-логику управления подписками:
// фасад над хранилищем с кешированием и единой политикой ошибок.
//
// Политика ошибок на границе фасада: сбои бэкенда логируются и
// преобразуются в безопасные значения (false, пустой список, отсутствие
// записи) — вызывающая сторона никогда не видит ошибку бэкенда.
// Отсутствие пользователя при этом отличимо от сбоя ввода-вывода по
// сигнальной ошибке storage.ErrUserNotFound.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/magabrotheeeer/subscription-admin/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-admin/internal/models"
	"github.com/magabrotheeeer/subscription-admin/internal/storage"
)

// userCacheTTL — время жизни закешированной строки пользователя.
// Короткое: все мутации инвалидируют ключ, TTL лишь страховка.
const userCacheTTL = time.Minute

// Store определяет методы хранилища, используемые сервисом.
type Store interface {
	AddUser(ctx context.Context, id int64, username, firstName, lastName string) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateSubscriptionStatus(ctx context.Context, id int64, status models.SubscriptionStatus, start, end *time.Time) error
	GrantSubscription(ctx context.Context, grant storage.Grant) error
	ExpireSubscription(ctx context.Context, id int64) error
	ListAllUsers(ctx context.Context) ([]*models.User, error)
	ListActiveUsers(ctx context.Context, now time.Time) ([]*models.User, error)
	CountUsers(ctx context.Context) (int, error)
	LastPayment(ctx context.Context, id int64) (*models.Payment, error)
	LogUsage(ctx context.Context, id int64, endpoint string, success bool) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// GrantParams — параметры выдачи подписки. Нулевые Days и Amount
// заменяются значениями по умолчанию из конфигурации сервиса.
type GrantParams struct {
	UserID     int64
	Days       int
	Amount     float64
	AdminID    int64
	PaymentRef string
}

// Service реализует контракт Subscription Store: единственный владелец
// данных о пользователях и подписках.
type Service struct {
	store Store
	cache Cache
	log   *slog.Logger

	// Значения по умолчанию для административных грантов.
	defaultDays  int
	defaultPrice float64
	currency     string
}

// New создает новый Service поверх выбранного бэкенда.
func New(store Store, cache Cache, log *slog.Logger, defaultDays int, defaultPrice float64, currency string) *Service {
	return &Service{
		store:        store,
		cache:        cache,
		log:          log,
		defaultDays:  defaultDays,
		defaultPrice: defaultPrice,
		currency:     currency,
	}
}

func userCacheKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// AddUser выполняет идемпотентный upsert профиля. Повторное добавление
// обновляет поля профиля и updated_at, состояние подписки не трогает.
func (s *Service) AddUser(ctx context.Context, id int64, username, firstName, lastName string) bool {
	if err := s.store.AddUser(ctx, id, username, firstName, lastName); err != nil {
		s.log.Error("failed to add user", slog.Int64("user_id", id), sl.Err(err))
		return false
	}
	s.invalidate(id)
	s.log.Info("user added or updated", slog.Int64("user_id", id))
	return true
}

// GetUser возвращает пользователя по id. Второй результат false и для
// отсутствующего пользователя, и для сбоя бэкенда; сбой при этом
// логируется, отсутствие — нет.
func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, bool) {
	var cached models.User
	key := userCacheKey(id)
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read user from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, true
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, false
		}
		s.log.Error("failed to get user", slog.Int64("user_id", id), sl.Err(err))
		return nil, false
	}

	if err := s.cache.Set(key, u, userCacheTTL); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", key), sl.Err(err))
	}
	return u, true
}

// UpdateSubscriptionStatus меняет статус подписки пользователя. Для active
// окно пересчитывается: start = now, end = now + days; для остальных
// статусов даты не меняются.
func (s *Service) UpdateSubscriptionStatus(ctx context.Context, id int64, status models.SubscriptionStatus, days int) bool {
	if !status.Valid() {
		s.log.Error("invalid subscription status", slog.String("status", status.String()))
		return false
	}
	if days <= 0 {
		days = 30
	}

	var start, end *time.Time
	if status == models.StatusActive {
		now := time.Now()
		e := now.AddDate(0, 0, days)
		start, end = &now, &e
	}
	if err := s.store.UpdateSubscriptionStatus(ctx, id, status, start, end); err != nil {
		s.log.Error("failed to update subscription status",
			slog.Int64("user_id", id), slog.String("status", status.String()), sl.Err(err))
		return false
	}
	s.invalidate(id)
	s.log.Info("subscription status updated",
		slog.Int64("user_id", id), slog.String("status", status.String()))
	return true
}

// GrantSubscription выдает подписку: статус active с окном
// [now, now+days) и одна запись о платеже, всё одной транзакцией бэкенда.
// Возвращает дату окончания окна и признак успеха.
func (s *Service) GrantSubscription(ctx context.Context, p GrantParams) (time.Time, bool) {
	if p.Days <= 0 {
		p.Days = s.defaultDays
	}
	if p.Amount == 0 {
		p.Amount = s.defaultPrice
	}

	now := time.Now()
	end := now.AddDate(0, 0, p.Days)
	ref := p.PaymentRef
	if ref == "" {
		ref = fmt.Sprintf("admin_grant_%d_%d", p.UserID, now.Unix())
	}

	grant := storage.Grant{
		UserID:        p.UserID,
		Start:         now,
		End:           end,
		Amount:        p.Amount,
		Currency:      s.currency,
		PaymentMethod: "admin_grant",
		TransactionID: ref,
		Status:        "completed",
	}
	if err := s.store.GrantSubscription(ctx, grant); err != nil {
		s.log.Error("failed to grant subscription",
			slog.Int64("user_id", p.UserID), slog.Int64("admin_id", p.AdminID), sl.Err(err))
		return time.Time{}, false
	}
	s.invalidate(p.UserID)
	s.log.Info("subscription granted",
		slog.Int64("user_id", p.UserID),
		slog.Int64("admin_id", p.AdminID),
		slog.Int("days", p.Days),
		slog.String("payment_ref", ref))
	return end, true
}

// ExpireSubscription принудительно переводит подписку в expired.
func (s *Service) ExpireSubscription(ctx context.Context, id int64) bool {
	if err := s.store.ExpireSubscription(ctx, id); err != nil {
		s.log.Error("failed to expire subscription", slog.Int64("user_id", id), sl.Err(err))
		return false
	}
	s.invalidate(id)
	s.log.Info("subscription expired", slog.Int64("user_id", id))
	return true
}

// IsSubscribed сообщает, действует ли подписка пользователя сейчас.
// Ленивая экспирация: хранимый статус не считается фактом, действительность
// всегда пересчитывается по дате окончания. Отсутствующая дата окончания
// при статусе active трактуется как бессрочная подписка.
func (s *Service) IsSubscribed(ctx context.Context, id int64) bool {
	u, ok := s.GetUser(ctx, id)
	if !ok || u.Status != models.StatusActive {
		return false
	}
	if u.EndDate == nil {
		return true
	}
	return time.Now().Before(*u.EndDate)
}

// UserStats возвращает сводку по подписке и использованию пользователя.
// DaysRemaining = max(0, floor(end - now)), 0 при отсутствии даты окончания.
func (s *Service) UserStats(ctx context.Context, id int64) (*models.UserStats, bool) {
	u, ok := s.GetUser(ctx, id)
	if !ok {
		return nil, false
	}

	stats := &models.UserStats{
		UserID:            u.UserID,
		Status:            u.Status,
		SubscriptionStart: u.StartDate,
		SubscriptionEnd:   u.EndDate,
		QueriesUsed:       u.QueriesUsed,
	}
	if u.EndDate != nil {
		days := int(math.Floor(time.Until(*u.EndDate).Hours() / 24))
		if days > 0 {
			stats.DaysRemaining = days
		}
	}

	payment, err := s.store.LastPayment(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrPaymentNotFound) {
			s.log.Error("failed to read last payment", slog.Int64("user_id", id), sl.Err(err))
		}
		return stats, true
	}
	stats.PaymentAmount = payment.Amount
	stats.PaymentReference = payment.TransactionID
	return stats, true
}

// ListAllUsers возвращает всех пользователей, новые первыми.
// При сбое бэкенда возвращается пустой список.
func (s *Service) ListAllUsers(ctx context.Context) []*models.User {
	users, err := s.store.ListAllUsers(ctx)
	if err != nil {
		s.log.Error("failed to list users", sl.Err(err))
		return nil
	}
	return users
}

// ListActiveUsers возвращает пользователей с действующей подпиской.
// Строки с протухшим окном не попадают в список, даже если в колонке
// статуса всё ещё записано active.
func (s *Service) ListActiveUsers(ctx context.Context) []*models.User {
	users, err := s.store.ListActiveUsers(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("failed to list active users", sl.Err(err))
		return nil
	}
	return users
}

// Stats возвращает агрегированную статистику: всего пользователей,
// активных подписок и оценку выручки = активные × цена подписки.
func (s *Service) Stats(ctx context.Context) *models.Stats {
	stats := &models.Stats{SubscriptionPrice: s.defaultPrice}

	total, err := s.store.CountUsers(ctx)
	if err != nil {
		s.log.Error("failed to count users", sl.Err(err))
		return stats
	}
	stats.TotalUsers = total

	active := s.ListActiveUsers(ctx)
	stats.ActiveSubscriptions = len(active)
	stats.TotalRevenue = float64(len(active)) * s.defaultPrice
	if total > 0 {
		stats.ConversionRate = math.Round(float64(len(active))/float64(total)*100*100) / 100
	}
	return stats
}

// LogUsage добавляет запись журнала использования и увеличивает счётчик
// запросов пользователя.
func (s *Service) LogUsage(ctx context.Context, id int64, endpoint string, success bool) bool {
	if err := s.store.LogUsage(ctx, id, endpoint, success); err != nil {
		s.log.Error("failed to log usage", slog.Int64("user_id", id), sl.Err(err))
		return false
	}
	s.invalidate(id)
	return true
}

func (s *Service) invalidate(id int64) {
	key := userCacheKey(id)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", key), sl.Err(err))
	}
}
