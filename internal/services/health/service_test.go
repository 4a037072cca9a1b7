package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func TestStatusWithoutDatabase(t *testing.T) {
	st := NewService(nil, "openai", "gpt-4o-mini").Status(context.Background())
	if !st.OK || st.Database != "disabled" || st.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestStatusDatabasePing(t *testing.T) {
	database, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	mock.ExpectPing()
	if st := NewService(database, "openai", "m").Status(context.Background()); !st.OK || st.Database != "ok" {
		t.Fatalf("expected healthy database, got %+v", st)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	if st := NewService(database, "openai", "m").Status(context.Background()); st.OK || st.Database != "unreachable" {
		t.Fatalf("expected unhealthy database, got %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestHandlerStatusCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	database, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	mock.ExpectPing().WillReturnError(errors.New("down"))

	r := gin.New()
	NewHandler(NewService(database, "gemini", "gemini-2.5-flash")).RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	var body Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.OK || body.Provider != "gemini" {
		t.Fatalf("unexpected body %+v", body)
	}
}
