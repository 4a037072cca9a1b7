package health

import (
	"context"
	"database/sql"
	"time"

	"interview-backend/internal/shared/storage/db"
)

const pingTimeout = 2 * time.Second

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Database string `json:"database"`
}

// Service encapsulates health-related checks.
type Service struct {
	db       *sql.DB
	provider string
	model    string
}

// NewService constructs a new health service. database may be nil.
func NewService(database *sql.DB, provider, model string) *Service {
	return &Service{db: database, provider: provider, model: model}
}

// Status reports readiness. The service is unhealthy only when a
// configured database does not answer a ping.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{OK: true, Provider: s.provider, Model: s.model, Database: "disabled"}
	if s.db == nil {
		return st
	}
	if err := db.Ping(ctx, s.db, pingTimeout); err != nil {
		st.OK = false
		st.Database = "unreachable"
		return st
	}
	st.Database = "ok"
	return st
}
