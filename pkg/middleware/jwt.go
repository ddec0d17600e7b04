package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	bearerPrefix = "Bearer "

	// UserIDKey is the gin context key holding the authenticated user id (int64)
	UserIDKey = "user_id"
)

var (
	ErrMissingToken = errors.New("missing authorization header")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// JWTConfig configures token validation
type JWTConfig struct {
	Secret string
	// Issuer is checked when set
	Issuer string
}

// JWTMiddleware validates an HMAC signed bearer token and stores the subject as the user id
func JWTMiddleware(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "MISSING_TOKEN", "Authorization header is required")
			return
		}
		if !strings.HasPrefix(authHeader, bearerPrefix) || len(authHeader) <= len(bearerPrefix) {
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid authorization header format")
			return
		}

		userID, err := ParseUserID(authHeader[len(bearerPrefix):], cfg)
		if err != nil {
			code := "INVALID_TOKEN"
			if errors.Is(err, ErrTokenExpired) {
				code = "TOKEN_EXPIRED"
			}
			abortUnauthorized(c, code, "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// ParseUserID validates tokenString and returns the user id from the "sub" claim,
// falling back to "user_id"
func ParseUserID(tokenString string, cfg *JWTConfig) (int64, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	raw, ok := claims["sub"]
	if !ok {
		raw, ok = claims["user_id"]
	}
	if !ok {
		return 0, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return toUserID(raw)
}

func toUserID(raw interface{}) (int64, error) {
	var id int64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: subject is not numeric", ErrInvalidToken)
		}
		id = parsed
	case float64:
		id = int64(v)
	default:
		return 0, fmt.Errorf("%w: unsupported subject type %T", ErrInvalidToken, raw)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: subject must be positive", ErrInvalidToken)
	}
	return id, nil
}

// GetUserID returns the user id set by JWTMiddleware
func GetUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
