package identity

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/smallbiznis/vendo/internal/config"
	"go.uber.org/zap"
)

// Subject is an authenticated buyer.
type Subject struct {
	ID uuid.UUID
}

// Verifier resolves a bearer credential to a Subject. The boolean result is
// the only signal callers get; no error detail leaks to business logic.
type Verifier interface {
	FromAuthorization(header string) (Subject, bool)
	VerifyToken(token string) (Subject, bool)
}

type hs256Verifier struct {
	secret []byte
	log    *zap.Logger
}

// NewVerifier builds an HS256 access-token verifier. A blank secret is a
// startup error, never a silently-unauthenticated runtime state.
func NewVerifier(cfg config.Config, log *zap.Logger) (Verifier, error) {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		return nil, errors.New("auth jwt secret is not configured")
	}
	return &hs256Verifier{
		secret: []byte(secret),
		log:    log.Named("identity"),
	}, nil
}

// FromAuthorization parses "Authorization: Bearer <token>" and verifies it.
func (v *hs256Verifier) FromAuthorization(header string) (Subject, bool) {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return Subject{}, false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return Subject{}, false
	}
	return v.VerifyToken(token)
}

// VerifyToken verifies the HS256 signature and expiry and returns the buyer
// id carried in the "sub" claim.
func (v *hs256Verifier) VerifyToken(token string) (Subject, bool) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || parsed == nil || !parsed.Valid {
		v.log.Debug("invalid or expired token", zap.Error(err))
		return Subject{}, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Subject{}, false
	}
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		v.log.Debug("token verified but sub claim missing")
		return Subject{}, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		v.log.Debug("invalid sub claim", zap.String("sub", sub))
		return Subject{}, false
	}
	return Subject{ID: id}, true
}
