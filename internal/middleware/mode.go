package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/formcraft-backend/internal/model"
)

const (
	ContextKeyMode  = "mode"
	ContextKeyActor = "actor"

	// ActorHeader names the person acting. There are no accounts, so the
	// value is trusted as given.
	ActorHeader = "X-Actor"
)

// WithMode tags every request of a route group with the render mode the
// route stands for.
func WithMode(mode model.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyMode, mode)
		c.Next()
	}
}

// GetMode returns the mode set by WithMode. Routes without one fall back
// to the most restrictive mode.
func GetMode(c *gin.Context) model.Mode {
	if v, ok := c.Get(ContextKeyMode); ok {
		if m, ok := v.(model.Mode); ok {
			return m
		}
	}
	return model.ModeViewSubmission
}

// Actor records who is acting, from ActorHeader or fallback.
func Actor(fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			actor = fallback
		}
		c.Set(ContextKeyActor, actor)
		c.Next()
	}
}

func GetActor(c *gin.Context) string {
	return c.GetString(ContextKeyActor)
}
