package middleware

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueToken signs a bearer token for accountID. Production tokens come from
// the identity service; this is used by operators and tests.
func IssueToken(accountID, role, tier, secret, issuer string, expiryDuration time.Duration) (string, error) {
	now := time.Now()
	claims := LedgerClaims{
		Role: role,
		Tier: tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiryDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken parses a token string, validating its HS256 signature, its
// standard time claims and, when issuer is set, its issuer.
func ParseToken(tokenString, secret, issuer string) (*LedgerClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &LedgerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}
