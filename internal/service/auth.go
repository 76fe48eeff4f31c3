package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"warbler/internal/config"
	"warbler/internal/model"
)

// AuthService issues and verifies bearer tokens for API clients.
// Browser sessions live in the session cookie and never touch it.
type AuthService struct {
	users  *UserService
	config *config.Config
	now    func() time.Time
}

func NewAuthService(users *UserService, cfg *config.Config) *AuthService {
	return &AuthService{
		users:  users,
		config: cfg,
		now:    time.Now,
	}
}

// IssueToken checks the credentials and returns a signed access token.
func (s *AuthService) IssueToken(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.config.AccessTokenMaxAge,
	}, nil
}

// ParseToken validates an access token and returns the user id it carries.
func (s *AuthService) ParseToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.config.SecretKey), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, model.ErrTokenExpired
		}
		return 0, model.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, model.ErrTokenInvalid
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, model.ErrTokenInvalid
	}
	return int64(userID), nil
}

func (s *AuthService) generateAccessToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SecretKey))
}
