package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "paydesk/internal/errors"
	"paydesk/internal/models"
	"paydesk/internal/repositories"
	"paydesk/internal/repositories/cache"
	keys "paydesk/internal/utils/cache"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const DefaultTokenTTL = 12 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSecretMissing      = errors.New("JWT secret not configured")
)

// UserStore is the part of the user repository auth needs.
type UserStore interface {
	GetRole(ctx context.Context, userID uint) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
	RoleTTL  time.Duration
}

type Service struct {
	users   UserStore
	cache   cache.Cache
	secret  []byte
	issuer  string
	ttl     time.Duration
	roleTTL time.Duration
	now     func() time.Time
	log     logrus.FieldLogger
}

func NewService(users UserStore, c cache.Cache, cfg Config, log logrus.FieldLogger) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.RoleTTL <= 0 {
		cfg.RoleTTL = 5 * time.Minute
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "paydesk-api"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		users:   users,
		cache:   c,
		secret:  []byte(cfg.Secret),
		issuer:  cfg.Issuer,
		ttl:     cfg.TokenTTL,
		roleTTL: cfg.RoleTTL,
		now:     time.Now,
		log:     log.WithField("component", "auth"),
	}
}

// IssueToken signs an access token for the user.
func (s *Service) IssueToken(user *models.User) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrSecretMissing
	}
	now := s.now()
	claims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
		},
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates signature, expiry and issuer.
func (s *Service) ParseToken(tokenStr string) (*models.UserClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrSecretMissing
	}
	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Role returns the user's role row, served from cache when possible.
func (s *Service) Role(ctx context.Context, userID uint) (string, error) {
	key := keys.GenerateKey(keys.EntityRole, keys.KeyID, userID)
	if s.cache != nil {
		var role string
		found, err := s.cache.Get(ctx, key, &role)
		if err != nil {
			s.log.WithError(err).Warn("Role cache read failed")
		} else if found {
			return role, nil
		}
	}

	role, err := s.users.GetRole(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return "", apperrors.WithMessage(apperrors.ErrPermissionDenied, "user has no role")
		}
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, key, role, s.roleTTL); err != nil {
			s.log.WithError(err).Warn("Role cache write failed")
		}
	}
	return role, nil
}

// InvalidateRole drops the cached role of a user.
func (s *Service) InvalidateRole(ctx context.Context, userID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, keys.GenerateKey(keys.EntityRole, keys.KeyID, userID))
}

// Login verifies the password and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repositories.IsNotFound(err) {
			s.log.WithField("email", email).Info("Login failed: unknown user")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.WithField("user_id", user.ID).Info("Login failed: wrong password")
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
