package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"lpg-backend/internal/cache"
)

type Checker struct {
	db *pgxpool.Pool
}

type Status struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
	Cache    string         `json:"cache"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

func NewChecker(db *pgxpool.Pool) *Checker {
	return &Checker{db: db}
}

// Check pings the database and reports cache availability. The cache is
// advisory only; a missing redis never makes the service unready.
func (h *Checker) Check(ctx context.Context) Status {
	dbHealth := h.checkDatabase(ctx)

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	cacheStatus := "disabled"
	if cache.GetClient() != nil {
		cacheStatus = "enabled"
	}

	return Status{
		Status:   status,
		Database: dbHealth,
		Cache:    cacheStatus,
	}
}

func (h *Checker) checkDatabase(ctx context.Context) DatabaseHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return DatabaseHealth{Status: "healthy", ResponseTime: responseTime}
}
