package handlers

import (
	"net/http"
	"testing"

	"shortlify/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestAuthHandlers(t *testing.T) {
	env := setupTestHandler(t, config.Config{})

	t.Run("Register Success", func(t *testing.T) {
		w := env.do("POST", "/api/auth/register", map[string]string{
			"name":     "Ada",
			"email":    "ada@example.com",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusCreated, w.Code)

		resp := decode(t, w)
		assert.NotEmpty(t, resp["token"])
		user := resp["user"].(map[string]interface{})
		assert.Equal(t, "ada@example.com", user["email"])
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("Register Conflict", func(t *testing.T) {
		w := env.do("POST", "/api/auth/register", map[string]string{
			"name":     "Ada",
			"email":    "ada@example.com",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Register Invalid Body", func(t *testing.T) {
		w := env.do("POST", "/api/auth/register", map[string]string{
			"email":    "not-an-email",
			"password": "x",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Login Success", func(t *testing.T) {
		w := env.do("POST", "/api/auth/login", map[string]string{
			"email":    "ada@example.com",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode(t, w)["token"])
	})

	t.Run("Login Invalid Credentials", func(t *testing.T) {
		w := env.do("POST", "/api/auth/login", map[string]string{
			"email":    "ada@example.com",
			"password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid credentials", decode(t, w)["error"])
	})
}
