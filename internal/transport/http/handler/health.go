package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"userhub/internal/repository"
)

type HealthHandler struct {
	users *repository.UserRepository
}

func NewHealthHandler(users *repository.UserRepository) *HealthHandler {
	return &HealthHandler{users: users}
}

// Check answers 200 when the store completes a trivial round trip, 503
// otherwise. The body is empty either way.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.users.CheckHealth(ctx); err != nil {
		log.Printf("health check failed: %v", err)
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}
