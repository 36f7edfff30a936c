package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claims carries only the user id. The role is looked up on every request so
// that a role change takes effect without reissuing tokens.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *JWTService) GenerateToken(userID primitive.ObjectID) (string, error) {
	now := s.now()
	claims := &Claims{
		ID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature and expiry and returns the user id claim.
func (s *JWTService) ValidateToken(tokenStr string) (primitive.ObjectID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return primitive.NilObjectID, fmt.Errorf("invalid token: %w", err)
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid token: malformed id claim")
	}
	return id, nil
}
