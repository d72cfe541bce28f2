package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"userhub/internal/app"
	"userhub/internal/model"
	"userhub/internal/transport/http/response"
)

const ContextUserKey = "current_user"

// BasicAuth re-verifies HTTP Basic credentials on every request. There is no
// session or token: the email/password pair is the only proof of identity,
// and each request pays for its own check.
func BasicAuth(accounts *app.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, plaintext, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c, "missing basic credentials")
			return
		}

		user, err := accounts.Authenticate(c.Request.Context(), email, plaintext)
		if err != nil {
			// Unknown email, wrong password and malformed stored
			// hash all land here; the client sees one answer.
			unauthorized(c, "invalid email or password")
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user the middleware authenticated for this
// request.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Basic realm="userhub"`)
	response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, message)
	c.Abort()
}
