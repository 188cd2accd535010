package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"todo/internal/service"
)

const ownerIDCtxKey = "owner_id"

type tokenParser struct {
	parser *jwt.Parser
	key    []byte
}

func newTokenParser(issuer string, key []byte) *tokenParser {
	return &tokenParser{
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
		key: key,
	}
}

// parse verifies tokenString and returns its subject.
func (p *tokenParser) parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := p.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return p.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func (h *handler) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		h.unauthorized(c, "Authorization header required", nil)
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix || strings.TrimSpace(parts[1]) == "" {
		h.unauthorized(c, "Invalid authorization header", nil)
		return
	}

	ownerID, err := h.tokens.parse(strings.TrimSpace(parts[1]))
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "Token expired"
		}
		h.unauthorized(c, msg, err)
		return
	}

	c.Set(ownerIDCtxKey, ownerID)
	c.Next()
}

func (h *handler) unauthorized(c *gin.Context, msg string, err error) {
	h.logger.Debug().Err(err).Str("reason", msg).Msg("rejected bearer token")
	abort(c, http.StatusUnauthorized, errorResponse{Message: msg, Code: service.CodeUnauthorized})
}

func ownerID(c *gin.Context) string {
	return c.GetString(ownerIDCtxKey)
}
