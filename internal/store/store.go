// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/mavunolabs/shamba/internal/domain"
)

// Repository defines the persistence operations used by the interrogation
// engine and its collaborators.
type Repository interface {
	// GetCustomerByPhone retrieves a customer by phone number.
	// Returns (nil, nil) if no customer exists.
	GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error)

	// CreateCustomer inserts a new customer record.
	CreateCustomer(ctx context.Context, c *domain.Customer) error

	// UpdateCustomerFields performs a narrow field-list update: only the named
	// columns are written, so concurrent updates to unrelated fields are never
	// clobbered. Unknown field names are rejected.
	UpdateCustomerFields(ctx context.Context, customerID string, fields map[string]any) error

	// ReplaceCommodities replaces the customer's commodity associations of the
	// given kind (crop or livestock) with the provided set.
	ReplaceCommodities(ctx context.Context, customerID, kind string, names []string) error

	// GetMiscData retrieves the customer's scratch record, or (nil, nil).
	GetMiscData(ctx context.Context, customerID string) (*domain.CustomerMiscData, error)

	// UpsertMiscData creates or updates the customer's scratch record.
	UpsertMiscData(ctx context.Context, md *domain.CustomerMiscData) error

	// ListPlantingRecords returns all planting records for a customer.
	ListPlantingRecords(ctx context.Context, customerID string) ([]*domain.PlantingRecord, error)

	// UpsertPlantingRecord creates or updates one (customer, crop) planting record.
	UpsertPlantingRecord(ctx context.Context, rec *domain.PlantingRecord) error

	// GetSurvey retrieves the survey document for (customer, title), or (nil, nil).
	GetSurvey(ctx context.Context, customerID, title string) (*domain.CustomerSurvey, error)

	// CreateSurvey inserts a new survey document.
	CreateSurvey(ctx context.Context, s *domain.CustomerSurvey) error

	// SaveSurveyAnswer records one answer under a question key. Writes against
	// a finished document are rejected.
	SaveSurveyAnswer(ctx context.Context, surveyID, key, value string) error

	// FinishSurvey sets the finished timestamp, making the document immutable
	// to further flow writes.
	FinishSurvey(ctx context.Context, surveyID string, finishedAt time.Time) error

	// CancelSurvey finalizes the document like FinishSurvey but marks it
	// cancelled, excluding it from quota tallies.
	CancelSurvey(ctx context.Context, surveyID string, finishedAt time.Time) error

	// CountFinishedSurveys counts finished, non-cancelled documents for a
	// survey title whose recorded answer under questionKey equals answer.
	// Used for quota checks.
	CountFinishedSurveys(ctx context.Context, title, questionKey, answer string) (int, error)

	// LatestSession returns the most recently updated session for
	// (phone, flow type), finished or not, or (nil, nil).
	LatestSession(ctx context.Context, phone, flowType string) (*domain.DialogSession, error)

	// SaveSession creates or updates a session record by id.
	SaveSession(ctx context.Context, s *domain.DialogSession) error

	// ReapSessions deletes finished or stale session rows not touched within
	// the threshold. Returns the number of rows removed.
	ReapSessions(ctx context.Context, olderThan time.Duration) (int64, error)

	// FindBoundaries returns boundary records matching a name
	// (case-insensitive) within a country, ordered by id.
	FindBoundaries(ctx context.Context, name, country string) ([]*domain.Boundary, error)

	// AddBoundary inserts a boundary reference record (seed loading).
	AddBoundary(ctx context.Context, b *domain.Boundary) error

	// ListSchools returns the full school corpus (nearest-name index warm-up).
	ListSchools(ctx context.Context) ([]*domain.School, error)

	// AddSchool inserts a school reference record (seed loading).
	AddSchool(ctx context.Context, s *domain.School) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
