package cache

import "time"

// Noop — кеш-заглушка для процессов без redis: всегда промах, запись и
// инвалидация ничего не делают.
type Noop struct{}

// Get всегда сообщает о промахе.
func (Noop) Get(_ string, _ any) (bool, error) { return false, nil }

// Set ничего не сохраняет.
func (Noop) Set(_ string, _ any, _ time.Duration) error { return nil }

// Invalidate ничего не удаляет.
func (Noop) Invalidate(_ string) error { return nil }
