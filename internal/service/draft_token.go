package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const draftTokenType = "draft"

var (
	ErrDraftTokenInvalid = errors.New("draft token invalid")
	ErrDraftTokenExpired = errors.New("draft token expired")
)

// DraftClaims identifica el borrador dueño del token.
type DraftClaims struct {
	DraftID   string `json:"did"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// DraftTokenService emite y valida tokens JWT que apuntan a un borrador del wizard.
type DraftTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewDraftTokenService(secret string, ttl time.Duration) *DraftTokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DraftTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "footprint-mirror",
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *DraftTokenService) Issue(draftID string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(draftID) == "" {
		return "", ErrDraftTokenInvalid
	}
	now := s.now()
	claims := DraftClaims{
		DraftID:   draftID,
		TokenType: draftTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   draftID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse devuelve el id del borrador si el token es válido.
func (s *DraftTokenService) Parse(tokenString string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return "", ErrDraftTokenInvalid
	}
	var claims DraftClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrDraftTokenExpired
		}
		return "", ErrDraftTokenInvalid
	}
	if !s.isValidClaims(claims) {
		return "", ErrDraftTokenInvalid
	}
	return claims.DraftID, nil
}

func (s *DraftTokenService) isValidClaims(claims DraftClaims) bool {
	if claims.TokenType != draftTokenType {
		return false
	}
	if strings.TrimSpace(claims.DraftID) == "" || claims.Subject != claims.DraftID {
		return false
	}
	return claims.Issuer == s.issuer
}
