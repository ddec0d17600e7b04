package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTMiddleware(&JWTConfig{Secret: testSecret}))
	r.GET("/me", func(c *gin.Context) {
		id, ok := GetUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	valid := signToken(t, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)
	numeric := signToken(t, jwt.MapClaims{"user_id": 7, "exp": time.Now().Add(time.Hour).Unix()}, testSecret)
	expired := signToken(t, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)
	wrongKey := signToken(t, jwt.MapClaims{"sub": "42"}, "other-secret")
	badSubject := signToken(t, jwt.MapClaims{"sub": "alice"}, testSecret)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid subject", "Bearer " + valid, http.StatusOK, `{"user_id":42}`},
		{"numeric user_id claim", "Bearer " + numeric, http.StatusOK, `{"user_id":7}`},
		{"missing header", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"non numeric subject", "Bearer " + badSubject, http.StatusUnauthorized, "INVALID_TOKEN"},
	}

	router := setupRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestParseUserID_Issuer(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "5", "iss": "someone-else"}, testSecret)

	_, err := ParseUserID(token, &JWTConfig{Secret: testSecret, Issuer: "event-inventory"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	id, err := ParseUserID(token, &JWTConfig{Secret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
}

func TestGetUserID_NotSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)
}
