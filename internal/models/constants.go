package models

const (
	StatusConfirmed = "confirmed"
)

const (
	// Guest count bounds accepted at checkout.
	MinGuests = 1
	MaxGuests = 20

	// MinNameLen is the shortest accepted customer name.
	MinNameLen = 2

	// MinPhoneDigits is the minimum digit count for a phone number.
	MinPhoneDigits = 10

	// DefaultCheckoutTTL время жизни состояния оформления в Redis (секунды)
	DefaultCheckoutTTL = 30 * 60

	// DefaultAvailabilityDays размер окна доступности по умолчанию
	DefaultAvailabilityDays = 14

	// RateLimitRequests количество запросов в окне
	RateLimitRequests = 30

	// RateLimitWindow окно ограничения частоты запросов (секунды)
	RateLimitWindow = 60

	// WorkerQueueSize размер очереди воркера отчетов
	WorkerQueueSize = 128
)
