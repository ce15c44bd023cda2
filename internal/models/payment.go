package models

import "time"

// Payment описывает одну запись о выдаче подписки. Записи создаются при
// каждом грантовании и никогда не изменяются.
type Payment struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// UsageLog — одна строка журнала использования. Только добавление,
// для подписочных решений журнал никогда не читается.
type UsageLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}
