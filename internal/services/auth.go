package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shortlify/internal/models"
	"shortlify/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService registers users and issues the bearer tokens whose subject is
// the owner reference of every link the user creates.
type AuthService struct {
	db           *gorm.DB
	secret       []byte
	ttl          time.Duration
	auditService *AuditService
	logger       *slog.Logger
}

func NewAuthService(db *gorm.DB, secret string, ttl time.Duration, auditService *AuditService, logger *slog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthService{
		db:           db,
		secret:       []byte(secret),
		ttl:          ttl,
		auditService: auditService,
		logger:       logger,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password, ip string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return "", nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return "", nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           utils.NewUserID(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", nil, ErrEmailTaken
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	s.auditService.LogAction(user.ID, "REGISTER", user.ID, nil, ip)
	return token, user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	s.auditService.LogAction(user.ID, "LOGIN", user.ID, nil, ip)
	return token, &user, nil
}

// Verify returns the owner reference carried by a valid token. The subject
// must still be a registered account.
func (s *AuthService) Verify(ctx context.Context, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", claims.Subject).Limit(1).Count(&n).Error; err != nil {
		return "", fmt.Errorf("find token subject: %w", err)
	}
	if n == 0 {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *AuthService) issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
