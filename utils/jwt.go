package utils

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/scalade/scalade-api/config"

	"strings"
)

func ExtractToken(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}

func ParseToken(tokenString string, config *config.EnvConfig) (*jwt.Token, error) {
	secret := []byte(config.JWT.SecretKey)
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
}

func InjectClaimsToContext(c *gin.Context, claims jwt.MapClaims) error {
	accountIDStr, ok := claims["account_uuid"].(string)
	if !ok {
		return errors.New("invalid account_uuid format")
	}
	// Validate that it's a valid UUID
	_, err := uuid.Parse(accountIDStr)
	if err != nil {
		return errors.New("invalid account_uuid format")
	}
	c.Set("account_uuid", accountIDStr)

	if permission, ok := claims["permission"].(string); ok {
		c.Set("permission", permission)
	} else {
		c.Set("permission", "")
	}
	return nil
}

func GetAccountIDFromContext(c *gin.Context) (uuid.UUID, error) {
	accountID, exists := c.Get("account_uuid")
	if !exists {
		return uuid.Nil, errors.New("account_uuid is missing from context")
	}

	switch v := accountID.(type) {
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, errors.New("invalid account_uuid format: " + err.Error())
		}
		return parsed, nil
	case uuid.UUID:
		return v, nil
	default:
		return uuid.Nil, errors.New("invalid account_uuid type in context")
	}
}

// GenerateRuntimeToken issues the bearer credential a worker presents to the
// runtime API. The token binds the worker to exactly one function instance.
func GenerateRuntimeToken(fiUUID uuid.UUID, config *config.EnvConfig) (string, error) {
	claims := jwt.MapClaims{
		"fi_uuid": fiUUID.String(),
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Duration(config.RuntimeToken.Expire) * time.Second).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.RuntimeToken.SecretKey))
}

// ParseRuntimeToken verifies a worker token and returns the function
// instance uuid it was issued for. It fails closed on any malformed,
// unsigned or expired token.
func ParseRuntimeToken(tokenString string, config *config.EnvConfig) (uuid.UUID, error) {
	secret := []byte(config.RuntimeToken.SecretKey)
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errors.New("invalid runtime token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid runtime token claims")
	}
	fiStr, ok := claims["fi_uuid"].(string)
	if !ok {
		return uuid.Nil, errors.New("runtime token is missing the fi_uuid claim")
	}
	fiUUID, err := uuid.Parse(fiStr)
	if err != nil {
		return uuid.Nil, errors.New("runtime token carries a malformed fi_uuid claim")
	}
	return fiUUID, nil
}
