package session

import (
	"context"
	"fmt"
	"io"
	"strings"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"
	"paydesk/internal/services/contactsync"
	"paydesk/internal/services/formstate"
	"paydesk/internal/services/registry"
	"paydesk/internal/validation"
)

// UpdateField sets one value of the open record by dot path.
func (m *Manager) UpdateField(ctx context.Context, contractID, path string, value any) (*onboarding.Record, error) {
	if lockedField(path) {
		return nil, invalid(fmt.Errorf("%w: %s", ErrFieldReadOnly, path))
	}
	var rec *onboarding.Record
	err := m.edit(contractID, func(s *Session) error {
		if err := s.apply(ctx, func(c *formstate.Controller) error { return c.UpdateField(path, value) }); err != nil {
			return err
		}
		rec = s.form.Record()
		return nil
	})
	return rec, err
}

// UpdateSection merges values into the object at path.
func (m *Manager) UpdateSection(ctx context.Context, contractID, path string, values map[string]any) (*onboarding.Record, error) {
	if lockedField(path) {
		return nil, invalid(fmt.Errorf("%w: %s", ErrFieldReadOnly, path))
	}
	for key := range values {
		if lockedField(strings.TrimSpace(path) + "." + key) {
			return nil, invalid(fmt.Errorf("%w: %s.%s", ErrFieldReadOnly, path, key))
		}
	}
	var rec *onboarding.Record
	err := m.edit(contractID, func(s *Session) error {
		if err := s.apply(ctx, func(c *formstate.Controller) error { return c.UpdateSection(path, values) }); err != nil {
			return err
		}
		rec = s.form.Record()
		return nil
	})
	return rec, err
}

func sourceSnapshot(rec *onboarding.Record, src onboarding.Source) (onboarding.ContactSnapshot, error) {
	if src != onboarding.SourceContactInfo && src != onboarding.SourceCompanyContact {
		return onboarding.ContactSnapshot{}, invalid(fmt.Errorf("%w: %q", ErrUnknownSource, src))
	}
	snap := contactsync.SourceSnapshot(rec, src)
	if snap == (onboarding.ContactSnapshot{}) {
		return snap, invalid(onboarding.ErrMissingContactInfo)
	}
	return snap, nil
}

// UseContactAsAuthorizedPerson appends an authorized person filled from the
// given contact source and linked to it.
func (m *Manager) UseContactAsAuthorizedPerson(ctx context.Context, contractID string, src onboarding.Source) (*onboarding.AuthorizedPerson, error) {
	var person *onboarding.AuthorizedPerson
	err := m.edit(contractID, func(s *Session) error {
		rec := s.form.Record()
		snap, err := sourceSnapshot(rec, src)
		if err != nil {
			return err
		}
		for _, p := range rec.AuthorizedPersons {
			if p != nil && p.CreatedFromContact && p.Link != nil && p.Link.Source == src {
				return invalid(ErrAlreadyCreated)
			}
		}

		salutation := ""
		if src == onboarding.SourceContactInfo && rec.ContactInfo != nil {
			salutation = rec.ContactInfo.Salutation
		}
		person = contactsync.NewAuthorizedPerson(src, snap, salutation)
		path := fmt.Sprintf("authorizedPersons.%d", len(rec.AuthorizedPersons))
		return s.apply(ctx, func(c *formstate.Controller) error { return c.UpdateField(path, person) })
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}

// UseContactAsActualOwner appends an actual owner filled from the given
// contact source and linked to it.
func (m *Manager) UseContactAsActualOwner(ctx context.Context, contractID string, src onboarding.Source) (*onboarding.ActualOwner, error) {
	var owner *onboarding.ActualOwner
	err := m.edit(contractID, func(s *Session) error {
		rec := s.form.Record()
		snap, err := sourceSnapshot(rec, src)
		if err != nil {
			return err
		}
		for _, o := range rec.ActualOwners {
			if o != nil && o.CreatedFromContact && o.Link != nil && o.Link.Source == src {
				return invalid(ErrAlreadyCreated)
			}
		}

		owner = contactsync.NewActualOwner(src, snap)
		path := fmt.Sprintf("actualOwners.%d", len(rec.ActualOwners))
		return s.apply(ctx, func(c *formstate.Controller) error { return c.UpdateField(path, owner) })
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

// CreateLocationFromContact inserts the contact-derived location as the
// first location. Only one such location may exist.
func (m *Manager) CreateLocationFromContact(ctx context.Context, contractID string) (*onboarding.BusinessLocation, error) {
	var loc *onboarding.BusinessLocation
	err := m.edit(contractID, func(s *Session) error {
		rec := s.form.Record()
		if rec.HasLocationFromContact() {
			return invalid(onboarding.ErrLocationFromContact)
		}
		snap, err := sourceSnapshot(rec, onboarding.SourceContactInfo)
		if err != nil {
			return err
		}

		loc = contactsync.NewLocation(rec, snap)
		locations := append([]*onboarding.BusinessLocation{loc}, rec.BusinessLocations...)
		return s.apply(ctx, func(c *formstate.Controller) error { return c.UpdateField("businessLocations", locations) })
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// AddLocation appends a location unrelated to the contact.
func (m *Manager) AddLocation(ctx context.Context, contractID string, in *onboarding.BusinessLocation) (*onboarding.BusinessLocation, error) {
	loc := &onboarding.BusinessLocation{}
	if in != nil {
		cp := *in
		loc = &cp
	}
	loc.ID = onboarding.NewID()
	loc.CreatedFromContact = false
	loc.Link = nil

	err := m.edit(contractID, func(s *Session) error {
		path := fmt.Sprintf("businessLocations.%d", len(s.form.Record().BusinessLocations))
		return s.apply(ctx, func(c *formstate.Controller) error { return c.UpdateField(path, loc) })
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// ImportReport counts the rows added from the registry.
type ImportReport struct {
	AuthorizedPersons int `json:"authorizedPersons"`
	ActualOwners      int `json:"actualOwners"`
	Skipped           int `json:"skipped"`
}

// ImportRegistryPersons adds the company's statutory bodies as authorized
// persons and its beneficial owners as actual owners. People already on the
// form, matched by name, are skipped.
func (m *Manager) ImportRegistryPersons(ctx context.Context, contractID string) (ImportReport, error) {
	var report ImportReport
	if m.deps.Registry == nil {
		return report, ErrNoRegistry
	}
	err := m.edit(contractID, func(s *Session) error {
		rec := s.form.Record()
		if rec.CompanyInfo == nil || strings.TrimSpace(rec.CompanyInfo.ICO) == "" {
			return invalid(onboarding.ErrIncompleteCompanyInfo)
		}

		found, err := m.deps.Registry.Lookup(ctx, rec.CompanyInfo.ICO)
		if err != nil {
			s.log.WithError(err).Warn("Registry lookup failed")
			return external(err)
		}

		persons := append([]*onboarding.AuthorizedPerson(nil), rec.AuthorizedPersons...)
		owners := append([]*onboarding.ActualOwner(nil), rec.ActualOwners...)
		for _, p := range found {
			switch p.Role {
			case registry.RoleStatutory:
				if hasPerson(persons, p) {
					report.Skipped++
					continue
				}
				persons = append(persons, &onboarding.AuthorizedPerson{
					ID:          onboarding.NewID(),
					FirstName:   p.FirstName,
					LastName:    p.LastName,
					BirthDate:   p.BirthDate,
					Citizenship: p.Citizenship,
					Position:    p.Position,
				})
				report.AuthorizedPersons++
			case registry.RoleOwner:
				if hasOwner(owners, p) {
					report.Skipped++
					continue
				}
				owners = append(owners, &onboarding.ActualOwner{
					ID:          onboarding.NewID(),
					FirstName:   p.FirstName,
					LastName:    p.LastName,
					BirthDate:   p.BirthDate,
					Citizenship: p.Citizenship,
				})
				report.ActualOwners++
			default:
				report.Skipped++
			}
		}

		if report.AuthorizedPersons == 0 && report.ActualOwners == 0 {
			return nil
		}
		return s.apply(ctx, func(c *formstate.Controller) error {
			if err := c.UpdateField("authorizedPersons", persons); err != nil {
				return err
			}
			return c.UpdateField("actualOwners", owners)
		})
	})
	return report, err
}

func sameName(aFirst, aLast, bFirst, bLast string) bool {
	return strings.EqualFold(strings.TrimSpace(aFirst), strings.TrimSpace(bFirst)) &&
		strings.EqualFold(strings.TrimSpace(aLast), strings.TrimSpace(bLast))
}

func hasPerson(persons []*onboarding.AuthorizedPerson, p registry.Person) bool {
	for _, existing := range persons {
		if existing != nil && sameName(existing.FirstName, existing.LastName, p.FirstName, p.LastName) {
			return true
		}
	}
	return false
}

func hasOwner(owners []*onboarding.ActualOwner, p registry.Person) bool {
	for _, existing := range owners {
		if existing != nil && sameName(existing.FirstName, existing.LastName, p.FirstName, p.LastName) {
			return true
		}
	}
	return false
}

// UploadDocument stores one side of an authorized person's ID document and
// writes its URL onto the person.
func (m *Manager) UploadDocument(ctx context.Context, contractID, personID, side, contentType string, body io.Reader, size int64) (string, error) {
	if side != onboarding.DocumentFront && side != onboarding.DocumentBack {
		return "", invalid(onboarding.ErrInvalidDocumentSide)
	}
	var url string
	err := m.edit(contractID, func(s *Session) error {
		i := s.form.Record().FindAuthorizedPerson(personID)
		if i < 0 {
			return apperrors.Wrap(apperrors.ErrNotFound, onboarding.ErrPersonNotFound)
		}
		if m.deps.Documents == nil {
			return ErrNoDocuments
		}

		uploaded, err := m.deps.Documents.UploadDocument(ctx, contractID, personID, side, contentType, body, size)
		if err != nil {
			s.log.WithError(err).WithField("person_id", personID).Warn("Document upload failed")
			return external(err)
		}
		url = uploaded

		person := s.form.Record().AuthorizedPersons[i]
		field, previous := "documentFrontUrl", person.DocumentFrontURL
		if side == onboarding.DocumentBack {
			field, previous = "documentBackUrl", person.DocumentBackURL
		}
		// A replacement with another file type lands under a new key.
		if previous != "" && previous != uploaded {
			if err := m.deps.Documents.DeleteDocument(ctx, previous); err != nil {
				s.log.WithError(err).WithField("person_id", personID).Warn("Failed to remove replaced document")
			}
		}
		path := fmt.Sprintf("authorizedPersons.%d.%s", i, field)
		return s.apply(ctx, func(c *formstate.Controller) error { return c.UpdateField(path, uploaded) })
	})
	return url, err
}

// Save persists every section and pending person rows, then marks the form
// clean. Called when the user navigates between steps.
func (m *Manager) Save(ctx context.Context, contractID string) (*onboarding.Record, error) {
	var rec *onboarding.Record
	err := m.edit(contractID, func(s *Session) error {
		if err := s.ensureLocationIDs(); err != nil {
			return err
		}
		rec = s.form.Record()
		if err := m.deps.Store.SaveRecord(ctx, rec); err != nil {
			s.log.WithError(err).Error("Failed to save onboarding record")
			return err
		}
		if err := s.flush(ctx); err != nil {
			s.log.WithError(err).Error("Failed to save person rows")
			return apperrors.Wrap(apperrors.ErrStoreFailure, err)
		}
		s.form.MarkClean()
		return nil
	})
	return rec, err
}

// Submit validates the record, persists it with status submitted and makes
// it read-only.
func (m *Manager) Submit(ctx context.Context, contractID string) (*onboarding.Record, error) {
	var rec *onboarding.Record
	err := m.edit(contractID, func(s *Session) error {
		if err := s.ensureLocationIDs(); err != nil {
			return err
		}
		curr := s.form.Record()

		v := validation.New()
		v.Submission(curr)
		if err := v.Err(); err != nil {
			return err
		}

		if err := s.flush(ctx); err != nil {
			s.log.WithError(err).Error("Failed to save person rows before submit")
			return apperrors.Wrap(apperrors.ErrStoreFailure, err)
		}

		next := *curr
		next.Status = onboarding.StatusSubmitted
		if err := m.deps.Store.SaveRecord(ctx, &next); err != nil {
			s.log.WithError(err).Error("Failed to submit onboarding record")
			return err
		}
		s.form.ForceInitialize(&next)
		s.linkMerchant(ctx)
		s.persons.Close()
		s.owners.Close()

		rec = s.form.Record()
		s.log.Info("Onboarding record submitted")
		return nil
	})
	return rec, err
}
