package contactsync

import (
	"paydesk/internal/domain/onboarding"
	"paydesk/internal/services/formstate"
)

// Apply writes the non-nil collections of the patch through the controller.
func (p Patch) Apply(c *formstate.Controller) error {
	if p.AuthorizedPersons != nil {
		if err := c.UpdateField("authorizedPersons", p.AuthorizedPersons); err != nil {
			return err
		}
	}
	if p.ActualOwners != nil {
		if err := c.UpdateField("actualOwners", p.ActualOwners); err != nil {
			return err
		}
	}
	if p.BusinessLocations != nil {
		if err := c.UpdateField("businessLocations", p.BusinessLocations); err != nil {
			return err
		}
	}
	return nil
}

// SourceSnapshot returns the current values of the given source in rec.
func SourceSnapshot(rec *onboarding.Record, src onboarding.Source) onboarding.ContactSnapshot {
	if rec == nil {
		return onboarding.ContactSnapshot{}
	}
	switch src {
	case onboarding.SourceCompanyContact:
		if rec.CompanyInfo == nil {
			return onboarding.ContactSnapshot{}
		}
		return rec.CompanyInfo.ContactPerson.Snapshot()
	default:
		return rec.ContactInfo.Snapshot()
	}
}

// NewAuthorizedPerson builds a linked authorized person from a contact source.
func NewAuthorizedPerson(src onboarding.Source, snap onboarding.ContactSnapshot, salutation string) *onboarding.AuthorizedPerson {
	return &onboarding.AuthorizedPerson{
		ID:                 onboarding.NewID(),
		Salutation:         salutation,
		FirstName:          snap.FirstName,
		LastName:           snap.LastName,
		Email:              snap.Email,
		Phone:              snap.Phone,
		PhonePrefix:        snap.PhonePrefix,
		CreatedFromContact: true,
		Link:               &onboarding.SourceLink{Source: src, Snapshot: snap},
	}
}

// NewActualOwner builds a linked actual owner from a contact source.
func NewActualOwner(src onboarding.Source, snap onboarding.ContactSnapshot) *onboarding.ActualOwner {
	return &onboarding.ActualOwner{
		ID:                 onboarding.NewID(),
		FirstName:          snap.FirstName,
		LastName:           snap.LastName,
		CreatedFromContact: true,
		Link:               &onboarding.SourceLink{Source: src, Snapshot: snap},
	}
}

// NewLocation builds the contact-derived first business location. Company
// address and name seed the location when present.
func NewLocation(rec *onboarding.Record, snap onboarding.ContactSnapshot) *onboarding.BusinessLocation {
	loc := &onboarding.BusinessLocation{
		ID: onboarding.NewID(),
		ContactPerson: &onboarding.LocationContact{
			Name:        snap.FullName(),
			Email:       snap.Email,
			Phone:       snap.Phone,
			PhonePrefix: snap.PhonePrefix,
		},
		CreatedFromContact: true,
		Link:               &onboarding.SourceLink{Source: onboarding.SourceContactInfo, Snapshot: snap},
	}
	if rec != nil && rec.CompanyInfo != nil {
		loc.Name = rec.CompanyInfo.CompanyName
		if rec.CompanyInfo.Address != nil {
			addr := *rec.CompanyInfo.Address
			loc.Address = &addr
		}
	}
	return loc
}
