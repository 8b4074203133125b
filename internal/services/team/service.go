// Package team manages back-office user accounts. Every mutation is limited
// to admins and the caller's role is checked before anything is written.
package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "paydesk/internal/errors"
	"paydesk/internal/models"
	"paydesk/internal/repositories"
	"paydesk/internal/services/notification"
	"paydesk/internal/utils"
	"paydesk/internal/validation"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the part of the user repository the team service needs.
type UserStore interface {
	GetRole(ctx context.Context, userID uint) (string, error)
	CreateUser(ctx context.Context, user *models.User, role string) error
	DeleteUser(ctx context.Context, userID uint) error
}

// RoleCache drops cached role lookups.
type RoleCache interface {
	InvalidateRole(ctx context.Context, userID uint) error
}

type NewMember struct {
	Email string
	Name  string
	Phone string
	Role  string
}

// Created is returned once; the temporary password is never stored in
// plain text.
type Created struct {
	User              *models.User
	Role              string
	TemporaryPassword string
}

type Service struct {
	users  UserStore
	roles  RoleCache
	mailer notification.Mailer
	log    logrus.FieldLogger
}

func NewService(users UserStore, roles RoleCache, mailer notification.Mailer, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		users:  users,
		roles:  roles,
		mailer: mailer,
		log:    log.WithField("component", "team"),
	}
}

func (s *Service) requireAdmin(ctx context.Context, callerID uint) error {
	role, err := s.users.GetRole(ctx, callerID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return apperrors.ErrPermissionDenied
		}
		return err
	}
	if role != models.RoleAdmin {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// CreateMember adds a user with a generated temporary password and emails
// the credentials.
func (s *Service) CreateMember(ctx context.Context, callerID uint, in NewMember) (*Created, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	v := validation.New()
	v.Email("email", in.Email)
	v.Required("name", in.Name)
	v.MaxLength("name", in.Name, validation.MaxNameLength)
	if !models.ValidRole(in.Role) {
		v.AddError("role", "must be admin, partner or merchant")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	password, err := utils.GenerateSecureCode(12)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:    in.Email,
		Password: string(hash),
		Name:     in.Name,
		Phone:    in.Phone,
		Status:   "active",
	}
	if err := s.users.CreateUser(ctx, user, in.Role); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "email: already taken")
		}
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": in.Role, "by": callerID})
	log.Info("Team member created")

	if s.mailer != nil {
		msg := notification.Message{
			To:      user.Email,
			Subject: "Your paydesk account",
			Body:    fmt.Sprintf("Hello %s,\n\nyour temporary password is %s\nPlease change it after the first login.\n", user.Name, password),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			log.WithError(err).Warn("Welcome email failed")
		}
	}

	return &Created{User: user, Role: in.Role, TemporaryPassword: password}, nil
}

// DeleteMember removes a user. Admins cannot delete themselves.
func (s *Service) DeleteMember(ctx context.Context, callerID, userID uint) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if callerID == userID {
		return apperrors.WithMessage(apperrors.ErrValidation, "cannot delete own account")
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "by": callerID})
	if s.roles != nil {
		if err := s.roles.InvalidateRole(ctx, userID); err != nil {
			log.WithError(err).Warn("Failed to drop cached role")
		}
	}
	log.Info("Team member deleted")
	return nil
}
