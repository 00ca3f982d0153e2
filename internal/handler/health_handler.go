package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/formcraft-backend/internal/config"
)

// HealthHandler reports dependency health and the submission backlog.
type HealthHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	startTime time.Time
}

func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{pool: pool, rdb: rdb, startTime: time.Now()}
}

type healthStatus struct {
	Status          string            `json:"status"`
	Uptime          string            `json:"uptime"`
	Checks          map[string]string `json:"checks"`
	SubmissionQueue int64             `json:"submission_queue"`
}

// Health godoc
// GET /health
// Answers 503 when any dependency fails its ping.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	st := healthStatus{
		Status: "ok",
		Uptime: formatDuration(time.Since(h.startTime)),
		Checks: map[string]string{},
	}

	if h.pool != nil {
		st.Checks["postgres"] = checkResult(h.pool.Ping(ctx))
	}
	if h.rdb != nil {
		st.Checks["redis"] = checkResult(h.rdb.Ping(ctx).Err())
		st.SubmissionQueue, _ = h.rdb.LLen(ctx, config.WorkerKey.PersistSubmissionsQueue).Result()
	}

	code := http.StatusOK
	for _, v := range st.Checks {
		if v != "ok" {
			st.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, st)
}

func checkResult(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
