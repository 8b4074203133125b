package session

import (
	"errors"

	apperrors "paydesk/internal/errors"
	"paydesk/internal/services/registry"
	"paydesk/internal/storage"
)

var (
	ErrNotOpen        = apperrors.WithMessage(apperrors.ErrNotFound, "onboarding session is not open")
	ErrFieldReadOnly  = errors.New("field is not editable")
	ErrAlreadyCreated = errors.New("an entry created from this contact source already exists")
	ErrNoRegistry     = apperrors.WithMessage(apperrors.ErrUnavailable, "registry lookup is not configured")
	ErrNoDocuments    = apperrors.WithMessage(apperrors.ErrUnavailable, "document storage is not configured")
	ErrUnknownSource  = errors.New("unknown contact source")
)

// invalid wraps a caller mistake as a VALIDATION_FAILED error.
func invalid(err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrValidation, err)
}

// external classifies a failure of the registry or document storage.
// Rejected input (bad ICO, file type or size) is the caller's fault.
func external(err error) error {
	var de *apperrors.DomainError
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, registry.ErrInvalidICO),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrEmptyDocument):
		return apperrors.Wrap(apperrors.ErrValidation, err)
	default:
		return apperrors.Wrap(apperrors.ErrUnavailable, err)
	}
}
