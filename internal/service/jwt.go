package service

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
)

var jwtSecret []byte

const tokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("невалидный токен")

// Claims - данные пользователя внутри токена
type Claims struct {
	UserID int64  `json:"uid"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// InitJWT читает JWT_SECRET, без него токены подписываются случайным ключом
// и живут до перезапуска
func InitJWT() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using ephemeral secret")
		secret = time.Now().Format(time.RFC3339Nano)
	}
	jwtSecret = []byte(secret)
}

func IssueJWT(userID int64, name string) (string, error) {
	if jwtSecret == nil {
		InitJWT()
	}
	claims := Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

func ParseJWT(tokenStr string) (*Claims, error) {
	if jwtSecret == nil {
		InitJWT()
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
