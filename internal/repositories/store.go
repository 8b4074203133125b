package repositories

import (
	"context"
	"errors"
	"time"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"
	"paydesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tables maps admin table names to their row model.
var tables = map[string]func() any{
	"contracts":       func() any { return &models.Contract{} },
	"merchants":       func() any { return &models.Merchant{} },
	"warehouse_items": func() any { return &models.WarehouseItem{} },
}

var authorizedPersonColumns = []string{
	"contract_id", "salutation", "first_name", "last_name", "email", "phone",
	"phone_prefix", "maiden_name", "birth_date", "birth_number", "birth_place",
	"permanent_address", "job_position", "document_type", "document_number",
	"document_validity", "document_issuer", "document_country", "citizenship",
	"is_politically_exposed", "is_us_citizen", "document_front_url",
	"document_back_url", "created_from_contact", "sync_link", "updated_at",
}

var actualOwnerColumns = []string{
	"contract_id", "first_name", "last_name", "maiden_name", "birth_date",
	"birth_number", "birth_place", "citizenship", "permanent_address",
	"is_politically_exposed", "created_from_contact", "sync_link", "updated_at",
}

var _ Store = (*GormStore)(nil)

// GormStore implements Store on postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// storeErr maps gorm errors onto domain errors.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.Wrap(apperrors.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(apperrors.ErrValidation, err)
	default:
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
}

// first loads the single row of a section; found is false when missing.
func first(tx *gorm.DB, dest any, contractID string) (bool, error) {
	err := tx.Where("contract_id = ?", contractID).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *GormStore) LoadRecord(ctx context.Context, contractID string) (*onboarding.Record, error) {
	tx := s.db.WithContext(ctx)

	var contract models.Contract
	if err := tx.Where("id = ?", contractID).Take(&contract).Error; err != nil {
		return nil, storeErr(err)
	}

	rec := onboarding.NewRecord(contract.ID)
	rec.Status = onboarding.Status(contract.Status)
	if contract.MerchantID != nil {
		rec.MerchantID = *contract.MerchantID
	}

	var contact models.ContactInfo
	if ok, err := first(tx, &contact, contractID); err != nil {
		return nil, storeErr(err)
	} else if ok {
		rec.ContactInfo = contact.ToDomain()
	}

	var company models.CompanyInfo
	if ok, err := first(tx, &company, contractID); err != nil {
		return nil, storeErr(err)
	} else if ok {
		c, err := company.ToDomain()
		if err != nil {
			return nil, err
		}
		rec.CompanyInfo = c
	}

	var devices models.DeviceSelection
	if ok, err := first(tx, &devices, contractID); err != nil {
		return nil, storeErr(err)
	} else if ok {
		d, err := devices.ToDomain()
		if err != nil {
			return nil, err
		}
		rec.DeviceSelection = d
	}

	var fees models.Fees
	if ok, err := first(tx, &fees, contractID); err != nil {
		return nil, storeErr(err)
	} else if ok {
		f, err := fees.ToDomain()
		if err != nil {
			return nil, err
		}
		rec.Fees = f
	}

	var consents models.Consents
	if ok, err := first(tx, &consents, contractID); err != nil {
		return nil, storeErr(err)
	} else if ok {
		rec.Consents = consents.ToDomain()
	}

	var locations []models.BusinessLocation
	if err := tx.Where("contract_id = ?", contractID).Order("sort_order").Find(&locations).Error; err != nil {
		return nil, storeErr(err)
	}
	for i := range locations {
		l, err := locations[i].ToDomain()
		if err != nil {
			return nil, err
		}
		rec.BusinessLocations = append(rec.BusinessLocations, l)
	}

	var persons []models.AuthorizedPerson
	if err := tx.Where("contract_id = ?", contractID).Order("created_at").Find(&persons).Error; err != nil {
		return nil, storeErr(err)
	}
	for i := range persons {
		p, err := persons[i].ToDomain()
		if err != nil {
			return nil, err
		}
		rec.AuthorizedPersons = append(rec.AuthorizedPersons, p)
	}

	var owners []models.ActualOwner
	if err := tx.Where("contract_id = ?", contractID).Order("created_at").Find(&owners).Error; err != nil {
		return nil, storeErr(err)
	}
	for i := range owners {
		o, err := owners[i].ToDomain()
		if err != nil {
			return nil, err
		}
		rec.ActualOwners = append(rec.ActualOwners, o)
	}

	return rec, nil
}

func (s *GormStore) SaveRecord(ctx context.Context, rec *onboarding.Record) error {
	if rec == nil || rec.ContractID == "" {
		return onboarding.ErrContractIDRequired
	}
	id := rec.ContractID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract := models.Contract{ID: id, Status: string(rec.Status)}
		if contract.Status == "" {
			contract.Status = string(onboarding.StatusDraft)
		}
		if rec.MerchantID != "" {
			contract.MerchantID = &rec.MerchantID
		}
		if rec.Status == onboarding.StatusSubmitted {
			now := time.Now()
			contract.SubmittedAt = &now
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "merchant_id", "submitted_at", "updated_at"}),
		}).Create(&contract).Error; err != nil {
			return err
		}

		if err := saveSection(tx, id, &models.ContactInfo{}, models.NewContact(id, rec.ContactInfo)); err != nil {
			return err
		}
		if err := saveSection(tx, id, &models.CompanyInfo{}, models.NewCompany(id, rec.CompanyInfo)); err != nil {
			return err
		}
		if err := saveSection(tx, id, &models.DeviceSelection{}, models.NewDeviceSelection(id, rec.DeviceSelection)); err != nil {
			return err
		}
		if err := saveSection(tx, id, &models.Fees{}, models.NewFees(id, rec.Fees)); err != nil {
			return err
		}
		if err := saveSection(tx, id, &models.Consents{}, models.NewConsents(id, rec.Consents)); err != nil {
			return err
		}
		if err := saveLocations(tx, id, rec.BusinessLocations); err != nil {
			return err
		}
		// Person rows are written by upserts; here only rows the form no
		// longer holds are removed.
		if err := pruneRows(tx, id, personIDs(rec.AuthorizedPersons), &models.AuthorizedPerson{}); err != nil {
			return err
		}
		return pruneRows(tx, id, ownerIDs(rec.ActualOwners), &models.ActualOwner{})
	})
	return storeErr(err)
}

// saveSection upserts row, or deletes the section when row is a nil pointer.
func saveSection[T any](tx *gorm.DB, contractID string, model *T, row *T) error {
	if row == nil {
		return tx.Where("contract_id = ?", contractID).Delete(model).Error
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_id"}},
		UpdateAll: true,
	}).Create(row).Error
}

func saveLocations(tx *gorm.DB, contractID string, locations []*onboarding.BusinessLocation) error {
	keep := make([]string, 0, len(locations))
	for i, l := range locations {
		if l == nil {
			continue
		}
		if l.ID == "" {
			l = copyWithID(l)
		}
		keep = append(keep, l.ID)
		row := models.NewLocation(contractID, i, l)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(row).Error; err != nil {
			return err
		}
	}

	return pruneRows(tx, contractID, keep, &models.BusinessLocation{})
}

// pruneRows deletes the contract's rows of model whose id is not in keep.
func pruneRows(tx *gorm.DB, contractID string, keep []string, model any) error {
	del := tx.Where("contract_id = ?", contractID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	return del.Delete(model).Error
}

func personIDs(persons []*onboarding.AuthorizedPerson) []string {
	ids := make([]string, 0, len(persons))
	for _, p := range persons {
		if p != nil && p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func ownerIDs(owners []*onboarding.ActualOwner) []string {
	ids := make([]string, 0, len(owners))
	for _, o := range owners {
		if o != nil && o.ID != "" {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func copyWithID(l *onboarding.BusinessLocation) *onboarding.BusinessLocation {
	cp := *l
	cp.ID = uuid.NewString()
	return &cp
}

func (s *GormStore) ListContractIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Contract{}).Order("created_at").Pluck("id", &ids).Error
	return ids, storeErr(err)
}

func (s *GormStore) SetContractMerchant(ctx context.Context, contractID, merchantID string) error {
	res := s.db.WithContext(ctx).Model(&models.Contract{}).
		Where("id = ?", contractID).
		Update("merchant_id", merchantID)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrNotFound, "contract not found")
	}
	return nil
}

func (s *GormStore) UpsertAuthorizedPerson(ctx context.Context, contractID string, p *onboarding.AuthorizedPerson) error {
	row := models.NewAuthorizedPerson(contractID, p)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(authorizedPersonColumns),
	}).Create(row).Error
	return storeErr(err)
}

func (s *GormStore) UpsertActualOwner(ctx context.Context, contractID string, o *onboarding.ActualOwner) error {
	row := models.NewActualOwner(contractID, o)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(actualOwnerColumns),
	}).Create(row).Error
	return storeErr(err)
}

func (s *GormStore) FindMerchantByIdentity(ctx context.Context, companyName, ico string) (*onboarding.Merchant, error) {
	var row models.Merchant
	err := s.db.WithContext(ctx).
		Where("company_name = ? AND ico = ?", companyName, ico).
		Take(&row).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return row.ToDomain()
}

func (s *GormStore) CreateMerchant(ctx context.Context, m *onboarding.Merchant) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	row := models.NewMerchant(m)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrMerchantConflict
		}
		return storeErr(err)
	}
	m.CreatedAt = row.CreatedAt
	return nil
}

func (s *GormStore) UpdateRow(ctx context.Context, table, id string, fields map[string]any) error {
	newModel, ok := tables[table]
	if !ok {
		return ErrUnknownTable
	}
	res := s.db.WithContext(ctx).Model(newModel()).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrNotFound, table+" row not found")
	}
	return nil
}

func (s *GormStore) DeleteRow(ctx context.Context, table, id string) error {
	newModel, ok := tables[table]
	if !ok {
		return ErrUnknownTable
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if table == "contracts" {
			for _, section := range contractSections() {
				if err := tx.Where("contract_id = ?", id).Delete(section).Error; err != nil {
					return err
				}
			}
		}
		res := tx.Where("id = ?", id).Delete(newModel())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return storeErr(err)
}

func contractSections() []any {
	return []any{
		&models.ContactInfo{},
		&models.CompanyInfo{},
		&models.BusinessLocation{},
		&models.DeviceSelection{},
		&models.Fees{},
		&models.AuthorizedPerson{},
		&models.ActualOwner{},
		&models.Consents{},
	}
}

func (s *GormStore) FetchRows(ctx context.Context, table string, ids []string) ([]map[string]any, error) {
	newModel, ok := tables[table]
	if !ok {
		return nil, ErrUnknownTable
	}
	var rows []map[string]any
	err := s.db.WithContext(ctx).Model(newModel()).Where("id IN ?", ids).Order("id").Find(&rows).Error
	return rows, storeErr(err)
}

func (s *GormStore) GetRole(ctx context.Context, userID uint) (string, error) {
	var role models.UserRole
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&role).Error; err != nil {
		return "", storeErr(err)
	}
	return role.Role, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User, role string) error {
	if user == nil || user.Email == "" || !models.ValidRole(role) {
		return ErrInvalidUserData
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserRole{UserID: user.ID, Role: role}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return storeErr(err)
}

func (s *GormStore) DeleteUser(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return storeErr(err)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, storeErr(err)
	}
	return &user, nil
}
