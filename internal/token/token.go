package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"projecthub/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidToken = errors.New("token is not valid")

// Claims are baked into every issued bearer token: just enough to gate
// routes without a member lookup.
type Claims struct {
	MemberID string     `json:"memberId"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies the credentials used by the API: signed bearer
// tokens for sessions and deterministic HMAC tokens for the emailed
// "mark complete" links.
type Issuer struct {
	secret []byte
	expiry time.Duration
}

func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiry: expiry}
}

// Issue signs a bearer token for the member.
func (i *Issuer) Issue(memberID primitive.ObjectID, role model.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		MemberID: memberID.Hex(),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse verifies a bearer token and returns its claims.
func (i *Issuer) Parse(tokenString string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// CompletionToken derives the out-of-band task completion token. It is
// deterministic, never expires, and is not single-use; the emailed link
// stays valid for the life of the task.
func (i *Issuer) CompletionToken(taskID primitive.ObjectID) string {
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte(taskID.Hex()))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCompletionToken checks a presented completion token in constant time.
func (i *Issuer) VerifyCompletionToken(taskID primitive.ObjectID, presented string) bool {
	expected := i.CompletionToken(taskID)
	return hmac.Equal([]byte(expected), []byte(presented))
}
