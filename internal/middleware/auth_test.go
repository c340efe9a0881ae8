package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetUserRole(c)})
	})
	r.POST("/write", RequireLedgerWriter(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func request(r *gin.Engine, method, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newAuthRouter()

	valid, err := IssueToken(secret, 5, "payroll@example.com", RolePayroll, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(secret, 5, "payroll@example.com", RolePayroll, -time.Minute)
	require.NoError(t, err)
	foreign, err := IssueToken("other-secret", 5, "payroll@example.com", RolePayroll, time.Hour)
	require.NoError(t, err)
	anonymous, err := IssueToken(secret, 0, "nobody@example.com", RoleAdmin, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"bearer header", "/whoami", "Bearer " + valid, http.StatusOK},
		{"query token", "/whoami?token=" + valid, "", http.StatusOK},
		{"missing", "/whoami", "", http.StatusUnauthorized},
		{"wrong scheme", "/whoami", "Basic " + valid, http.StatusUnauthorized},
		{"expired", "/whoami", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "/whoami", "Bearer " + foreign, http.StatusUnauthorized},
		{"no user id", "/whoami", "Bearer " + anonymous, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(r, http.MethodGet, tt.path, tt.header)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := request(r, http.MethodGet, "/whoami", "Bearer "+valid)
	assert.JSONEq(t, `{"user_id":5,"role":"payroll"}`, w.Body.String())
}

func TestRequireLedgerWriter(t *testing.T) {
	r := newAuthRouter()

	for role, status := range map[string]int{
		RoleAdmin:   http.StatusNoContent,
		RolePayroll: http.StatusNoContent,
		RoleViewer:  http.StatusForbidden,
	} {
		token, err := IssueToken(secret, 1, role+"@example.com", role, time.Hour)
		require.NoError(t, err)
		w := request(r, http.MethodPost, "/write", "Bearer "+token)
		assert.Equal(t, status, w.Code, role)
	}
}
