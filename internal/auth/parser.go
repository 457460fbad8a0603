package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/scuolahub/finance-service/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	SchoolID string `json:"school_id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Parser validates access tokens and extracts the principal the engine
// operations are scoped by.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(token string) (model.Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	payload, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(payload.Subject)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	principal := model.Principal{
		UserID: userID,
		Role:   model.Role(payload.Role),
	}
	if payload.SchoolID != "" {
		schoolID, err := uuid.Parse(payload.SchoolID)
		if err != nil {
			return model.Principal{}, fmt.Errorf("%w: bad school_id", ErrInvalidToken)
		}
		principal.SchoolID = &schoolID
	}
	return principal, nil
}
