package auth

import (
	"time"

	"app/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

// HS256で署名するAccessTokenIssuer実装
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

// DI
func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

// jwt発行
func (i *JWTIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	exp := now.Add(i.ttl)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

// time.Nowを返すClock実装
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
