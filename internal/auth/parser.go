package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nurpe/engagements/internal/model"
)

// Parser validates access tokens issued by the identity service and extracts
// the acting principal. Token issuance is not this service's concern.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

type claims struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (p *Parser) Parse(token string) (model.Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, err
	}

	tokenClaims, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return model.Principal{}, fmt.Errorf("invalid token claims")
	}

	userID, err := uuid.Parse(tokenClaims.UserID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid user_id claim: %w", err)
	}
	orgID, err := uuid.Parse(tokenClaims.OrgID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid org_id claim: %w", err)
	}

	role := model.Role(strings.ToUpper(tokenClaims.Role))
	switch role {
	case model.RoleSeeker, model.RoleProvider, model.RoleAdmin:
	default:
		return model.Principal{}, fmt.Errorf("unknown role %q", tokenClaims.Role)
	}

	return model.Principal{UserID: userID, OrgID: orgID, Role: role}, nil
}
