// Package token creates capability token documents and converts them to
// and from a signed JWT presentation for the outer REST layer. The token
// document itself is immutable once stored; the validator rejects any
// later revision.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avoskresensky/docvault/document"
)

var ErrInvalidToken = errors.New("invalid token")

// New builds a token document granting rights over the entry identified
// by id. The owner must be a real user email: pseudo-principals can
// receive grants but can never hold a capability.
func New(id any, owner string, rights []string, now time.Time) (document.Document, error) {
	if document.IsReservedPrincipal(owner) || !document.IsEmail(owner) {
		return nil, fmt.Errorf("token owner %q must be a user email", owner)
	}
	if rights == nil {
		rights = []string{}
	}
	return document.Document{
		"$type":         document.TypeToken,
		"$kind":         document.TypeEntry,
		"$id":           id,
		"$owner":        owner,
		"$creationDate": now.UnixMilli(),
		"uuid":          uuid.NewString(),
		"rights":        rights,
	}, nil
}

// Claims is the JWT payload derived from a token document.
type Claims struct {
	jwt.RegisteredClaims
	TokenID string   `json:"tokenId"`
	Owner   string   `json:"owner"`
	Rights  []string `json:"rights"`
}

// Sign produces the HS256 presentation of a token document.
func Sign(doc document.Document, secret []byte, validity time.Duration) (string, error) {
	if doc.Type() != document.TypeToken || doc.UUID() == "" {
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		TokenID: doc.UUID(),
		Owner:   doc.Owner(),
		Rights:  doc.Rights(),
	})
	return t.SignedString(secret)
}

// Verify parses and checks a signed presentation, returning its claims.
func Verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
