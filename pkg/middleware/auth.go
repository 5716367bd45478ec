package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"whatsable-relay/internal/models"
	"whatsable-relay/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Context keys set by Auth
const (
	ContextUserID      = "userID"
	ContextAccountID   = "accountID"
	ContextMondayToken = "mondayToken"
)

var (
	ErrMissingUserID        = errors.New("token has no user id")
	ErrMissingPlatformToken = errors.New("token carries no monday access token")
	ErrMissingExpiry        = errors.New("token has no expiry")
)

// Claims covers both the tokens Monday signs for integration calls and the
// session tokens issued by the OAuth callback. Monday sends ids as numbers.
type Claims struct {
	UserID            models.FlexibleID `json:"userId,omitempty"`
	AccountID         models.FlexibleID `json:"accountId,omitempty"`
	Email             string            `json:"email,omitempty"`
	MondayToken       string            `json:"mondayToken,omitempty"`
	ShortLivedToken   string            `json:"shortLivedToken,omitempty"`
	BackToMondayToken string            `json:"backToMondayToken,omitempty"`
	jwt.RegisteredClaims
}

// PlatformToken returns the Monday API token carried by the claims
func (c *Claims) PlatformToken() string {
	switch {
	case c.MondayToken != "":
		return c.MondayToken
	case c.ShortLivedToken != "":
		return c.ShortLivedToken
	default:
		return c.BackToMondayToken
	}
}

// ValidateToken verifies an HS256 token against secret and checks the claims
// every authenticated request needs.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if claims.ExpiresAt == nil {
		return nil, ErrMissingExpiry
	}
	if claims.PlatformToken() == "" {
		return nil, ErrMissingPlatformToken
	}
	return claims, nil
}

// Auth gates a route group on a Bearer token signed with the shared secret
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, err := ValidateToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
		if err != nil {
			logger.Debug("Rejected token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ContextUserID, claims.UserID.String())
		c.Set(ContextAccountID, claims.AccountID.String())
		c.Set(ContextMondayToken, claims.PlatformToken())
		c.Next()
	}
}

// GenerateSessionToken signs the session token handed out after OAuth
func GenerateSessionToken(userID, accountID, email, mondayToken, secret string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user ID is required")
	}
	if mondayToken == "" {
		return "", errors.New("monday token is required")
	}
	if secret == "" {
		return "", errors.New("signing secret is required")
	}
	if ttl <= 0 {
		return "", errors.New("token lifetime must be positive")
	}

	now := time.Now()
	claims := &Claims{
		UserID:      models.FlexibleID(userID),
		AccountID:   models.FlexibleID(accountID),
		Email:       email,
		MondayToken: mondayToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// UserID returns the authenticated user id, or "" outside the gate
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// MondayToken returns the authenticated user's platform token
func MondayToken(c *gin.Context) string {
	return c.GetString(ContextMondayToken)
}
