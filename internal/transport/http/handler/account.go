package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"userhub/internal/app"
	"userhub/internal/transport/http/middleware"
	"userhub/internal/transport/http/response"
)

type AccountHandler struct {
	accounts *app.AccountService
}

type SignupRequest struct {
	Email     string `json:"email" binding:"required,email,max=128"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"required,min=1,max=64"`
	LastName  string `json:"last_name" binding:"required,min=1,max=64"`
}

// UpdateMeRequest has one optional field per mutable attribute. Absent or
// empty fields leave the stored value untouched.
type UpdateMeRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=64"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1,max=64"`
	Password  *string `json:"password" binding:"omitempty,min=8,max=128"`
}

func NewAccountHandler(accounts *app.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Signup creates a user from a full record. Any store failure, duplicate
// email included, answers 503 without telling the client why.
func (h *AccountHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.accounts.Signup(c.Request.Context(), app.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusServiceUnavailable, response.CodeStoreUnavailable, "signup unavailable")
		return
	}

	response.Created(c, user.Safe())
}

// Login only runs after the basic-auth middleware has matched the
// credentials; reaching it is the 200.
func (h *AccountHandler) Login(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "not authenticated")
		return
	}
	response.OK(c, user.Safe())
}

// Me returns the authenticated record as a flat object with the password
// field omitted.
func (h *AccountHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "not authenticated")
		return
	}
	c.JSON(http.StatusOK, user.Safe())
}

// UpdateMe applies a partial update to the authenticated record and returns
// the refreshed projection.
func (h *AccountHandler) UpdateMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "not authenticated")
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	updated, err := h.accounts.UpdateProfile(c.Request.Context(), user, app.ProfileUpdateInput{
		FirstName: deref(req.FirstName),
		LastName:  deref(req.LastName),
		Password:  deref(req.Password),
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusServiceUnavailable, response.CodeStoreUnavailable, "update unavailable")
		return
	}

	c.JSON(http.StatusOK, updated.Safe())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
