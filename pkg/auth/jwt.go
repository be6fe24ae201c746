package auth

import (
	"net/http"
	"strings"
	"time"

	"spinloot_backend/internal/model"
	"spinloot_backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const contextUserKey = "auth_user"

// JWTAuth issues and validates the bearer tokens returned on wallet
// connection.
type JWTAuth struct {
	secret []byte
	expiry time.Duration
}

func NewJWTAuth(secret string, expiry time.Duration) *JWTAuth {
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &JWTAuth{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Claims carries the identity of an authenticated wallet.
type Claims struct {
	WalletAddress string `json:"wallet_address"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token carrying the user's id, wallet address and role.
func (a *JWTAuth) Issue(userID uuid.UUID, walletAddress string, role model.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		WalletAddress: walletAddress,
		Role:          string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *JWTAuth) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// AuthenticatedUser is what handlers read back from the request context.
type AuthenticatedUser struct {
	ID            uuid.UUID
	WalletAddress string
	Role          model.Role
}

// Middleware validates the Authorization header and stores the caller's
// identity in the request context.
func (a *JWTAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		claims, err := a.parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Info("invalid auth token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			log.Error("invalid subject in token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}

		c.Set(contextUserKey, &AuthenticatedUser{
			ID:            userID,
			WalletAddress: claims.WalletAddress,
			Role:          model.Role(claims.Role),
		})
		c.Next()
	}
}

// UserFromContext returns the identity stored by Middleware.
func UserFromContext(c *gin.Context) (*AuthenticatedUser, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*AuthenticatedUser)
	return user, ok
}
