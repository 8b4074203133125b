package repositories

import (
	"context"
	"errors"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"
	"paydesk/internal/models"
)

var (
	ErrEmailTaken       = errors.New("email already taken")
	ErrUnknownTable     = errors.New("unknown table")
	ErrInvalidUserData  = errors.New("invalid user data")
	ErrMerchantConflict = errors.New("merchant with this identity already exists")
)

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}

// RecordRepository stores onboarding drafts section by section.
type RecordRepository interface {
	// LoadRecord assembles the full record, persons included.
	LoadRecord(ctx context.Context, contractID string) (*onboarding.Record, error)

	// SaveRecord writes the contract header and every section. Persons are
	// left to the auto-save upserts.
	SaveRecord(ctx context.Context, rec *onboarding.Record) error

	// ListContractIDs returns every contract id, oldest first.
	ListContractIDs(ctx context.Context) ([]string, error)

	// SetContractMerchant writes the merchant reference onto the contract.
	SetContractMerchant(ctx context.Context, contractID, merchantID string) error
}

// PersonRepository upserts person rows keyed by their client-side id.
type PersonRepository interface {
	UpsertAuthorizedPerson(ctx context.Context, contractID string, p *onboarding.AuthorizedPerson) error
	UpsertActualOwner(ctx context.Context, contractID string, o *onboarding.ActualOwner) error
}

type MerchantRepository interface {
	// FindMerchantByIdentity returns the merchant with exactly this name and
	// ICO, or an ErrNotFound error.
	FindMerchantByIdentity(ctx context.Context, companyName, ico string) (*onboarding.Merchant, error)

	// CreateMerchant inserts m and assigns its id when empty.
	CreateMerchant(ctx context.Context, m *onboarding.Merchant) error
}

// TableRepository addresses rows of admin tables by id and column name.
type TableRepository interface {
	UpdateRow(ctx context.Context, table, id string, fields map[string]any) error
	DeleteRow(ctx context.Context, table, id string) error
	FetchRows(ctx context.Context, table string, ids []string) ([]map[string]any, error)
}

type UserRepository interface {
	// GetRole returns the role row of the user.
	GetRole(ctx context.Context, userID uint) (string, error)

	// CreateUser inserts the user and its role row in one transaction.
	CreateUser(ctx context.Context, user *models.User, role string) error

	// DeleteUser removes the user and its role row.
	DeleteUser(ctx context.Context, userID uint) error

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store is everything the server needs from persistence.
type Store interface {
	RecordRepository
	PersonRepository
	MerchantRepository
	TableRepository
	UserRepository
}
