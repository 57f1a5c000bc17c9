package verify

import (
	"context"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a participant token issued by the group backend.
type Claims struct {
	Wallet string   `json:"wallet"`
	Groups []string `json:"groups"`
	jwt.RegisteredClaims
}

// Token accepts HS256 tokens whose claims list the groups the wallet belongs to.
type Token struct {
	secret []byte
	issuer string
}

// NewToken creates a token verifier. An empty issuer disables the issuer check.
func NewToken(secret []byte, issuer string) *Token {
	return &Token{secret: secret, issuer: issuer}
}

// Verify implements Verifier. claimed is the raw token.
func (t *Token) Verify(_ context.Context, claimed, room string) (string, error) {
	if claimed == "" {
		return "", ErrMissingIdentity
	}

	claims, err := t.parse(claimed)
	if err != nil {
		return "", err
	}
	if !ValidAddress(claims.Wallet) || !ValidAddress(room) {
		return "", ErrInvalidAddress
	}
	if !slices.Contains(claims.Groups, room) {
		return "", ErrNotParticipant
	}
	return claims.Wallet, nil
}

func (t *Token) parse(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Wallet == "" {
		return nil, fmt.Errorf("%w: no wallet claim", ErrInvalidToken)
	}
	return claims, nil
}

// IssueToken signs a participant token. Used by tooling and tests.
func IssueToken(secret []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
