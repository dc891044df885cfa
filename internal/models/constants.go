package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the four booking statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Service tags a clinic can offer. These replace the old habit of guessing
// a clinic's services from substrings of its name.
const (
	ServiceMedical  = "medical"
	ServiceGrooming = "grooming"
	ServiceBoarding = "boarding"
	ServiceTraining = "training"
	ServiceVaccines = "vaccines"
)

const (
	// DefaultSessionTTL время жизни сессии пользователя
	DefaultSessionTTL = 24 * 60 * 60 // 24 hours in seconds

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000

	// DefaultExportRangeMonths export window around today
	DefaultExportRangeMonthsBefore = 1
	DefaultExportRangeMonthsAfter  = 2

	// RateLimitRequests burst на один API-ключ
	RateLimitRequests = 20

	// SheetsCacheTTL время жизни кэша строк Google Sheets
	SheetsCacheTTL = 60 * 60 // 1 hour in seconds
)
