package clinic

import (
	"time"

	"github.com/google/uuid"
)

// Clinic is an isolated tenant. Every other row in the system is scoped to
// a clinic id; queries that cross clinics are bugs.
type Clinic struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	Active    bool
	CreatedAt time.Time
}
