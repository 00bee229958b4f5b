// Package receipt issues and verifies signed claim receipts. A receipt lets a
// claimant look up the status of one claim without an account; it grants
// nothing else.
package receipt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the value of the iss claim on every receipt.
const Issuer = "lostfound"

// Lifetime is how long a receipt stays valid.
const Lifetime = 90 * 24 * time.Hour

// ErrInvalid is returned for receipts that fail verification.
var ErrInvalid = errors.New("invalid receipt")

// Claims represents the JWT claims carried by a receipt.
type Claims struct {
	ItemID string `json:"item_id"`
	jwt.RegisteredClaims
}

// ClaimID returns the id of the claim the receipt was issued for.
func (c *Claims) ClaimID() string {
	return c.Subject
}

// Issue signs a receipt for a claim.
func Issue(secret, claimID, itemID string, issuedAt time.Time) (string, error) {
	claims := Claims{
		ItemID: itemID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   claimID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(Lifetime)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing receipt: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a receipt, returning its claims.
func Verify(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}
