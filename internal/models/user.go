// Package models содержит структуры данных предметной области:
// пользователей, платежи и журнал использования.
package models

import "time"

// SubscriptionStatus — закрытое перечисление статусов подписки.
// Хранится в базе как текст, но в коде сравнивается только с константами ниже.
type SubscriptionStatus string

const (
	// StatusInactive — пользователь никогда не имел подписки.
	StatusInactive SubscriptionStatus = "inactive"
	// StatusActive — подписка выдана; действительность окна всё равно
	// пересчитывается по subscription_end_date при каждой проверке.
	StatusActive SubscriptionStatus = "active"
	// StatusExpired — подписка отозвана или истекла.
	StatusExpired SubscriptionStatus = "expired"
)

// Valid сообщает, входит ли значение в перечисление.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusExpired:
		return true
	}
	return false
}

// String возвращает строковое представление статуса.
func (s SubscriptionStatus) String() string { return string(s) }

// User описывает одну строку таблицы users. UserID — внешний стабильный
// идентификатор (Telegram user id), первичный ключ.
type User struct {
	UserID      int64              `json:"user_id"`
	Username    string             `json:"username,omitempty"`
	FirstName   string             `json:"first_name,omitempty"`
	LastName    string             `json:"last_name,omitempty"`
	Status      SubscriptionStatus `json:"subscription_status"`
	StartDate   *time.Time         `json:"subscription_start_date,omitempty"`
	EndDate     *time.Time         `json:"subscription_end_date,omitempty"`
	QueriesUsed int                `json:"queries_used"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// UserStats — сводка по подписке и использованию одного пользователя.
type UserStats struct {
	UserID            int64              `json:"user_id"`
	Status            SubscriptionStatus `json:"subscription_status"`
	SubscriptionStart *time.Time         `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time         `json:"subscription_end,omitempty"`
	QueriesUsed       int                `json:"queries_used"`
	DaysRemaining     int                `json:"days_remaining"`
	PaymentAmount     float64            `json:"payment_amount"`
	PaymentReference  string             `json:"payment_reference,omitempty"`
}

// Stats — агрегированная статистика по всем пользователям.
type Stats struct {
	TotalUsers          int     `json:"total_users"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
	SubscriptionPrice   float64 `json:"subscription_price"`
	TotalRevenue        float64 `json:"total_revenue"`
	ConversionRate      float64 `json:"conversion_rate"`
}
