package validation

import (
	"fmt"
	"strings"
	"unicode"

	"paydesk/internal/domain/onboarding"
)

// Submission checks that a record is complete enough to be submitted.
func (v *Validator) Submission(rec *onboarding.Record) {
	if rec == nil {
		v.AddError("record", "must not be empty")
		return
	}

	v.Contact(rec.ContactInfo)
	v.Company(rec.CompanyInfo)

	v.Check(len(rec.BusinessLocations) > 0, "businessLocations", "must contain at least one location")
	for i, l := range rec.BusinessLocations {
		field := fmt.Sprintf("businessLocations.%d", i)
		if l == nil {
			v.AddError(field, "must not be empty")
			continue
		}
		v.Required(field+".name", l.Name)
		v.Check(l.IBAN != "" || len(l.BankAccounts) > 0, field+".iban", "must have an IBAN or a bank account")
	}

	v.Check(len(rec.AuthorizedPersons) > 0, "authorizedPersons", "must contain at least one person")
	for i, p := range rec.AuthorizedPersons {
		v.AuthorizedPerson(fmt.Sprintf("authorizedPersons.%d", i), p)
	}
	for i, o := range rec.ActualOwners {
		field := fmt.Sprintf("actualOwners.%d", i)
		v.Check(o.ReadyToPersist(), field, "first and last name are required")
	}

	v.Check(rec.Consents.Complete(), "consents", "GDPR and terms consent are required")
}

func (v *Validator) Contact(c *onboarding.ContactInfo) {
	if c == nil {
		v.AddError("contactInfo", "must not be empty")
		return
	}
	v.Required("contactInfo.firstName", c.FirstName)
	v.Required("contactInfo.lastName", c.LastName)
	v.Email("contactInfo.email", c.Email)
	if c.Phone != "" {
		v.Phone("contactInfo.phone", c.Phone)
	}
	v.MaxLength("contactInfo.salesNote", c.SalesNote, MaxSalesNoteLength)
}

func (v *Validator) Company(c *onboarding.CompanyInfo) {
	if c == nil {
		v.AddError("companyInfo", "must not be empty")
		return
	}
	v.Required("companyInfo.companyName", c.CompanyName)
	v.MaxLength("companyInfo.companyName", c.CompanyName, MaxNameLength)
	v.ICO("companyInfo.ico", c.ICO)
	v.Check(!c.IsVATPayer || strings.TrimSpace(c.VATNumber) != "", "companyInfo.vatNumber", "is required for VAT payers")
	v.Check(c.Address != nil && c.Address.Street != "" && c.Address.City != "", "companyInfo.address", "street and city are required")
}

// AuthorizedPerson applies the auto-save minimum as blocking messages.
func (v *Validator) AuthorizedPerson(field string, p *onboarding.AuthorizedPerson) {
	if p == nil {
		v.AddError(field, "must not be empty")
		return
	}
	v.Required(field+".firstName", p.FirstName)
	v.Required(field+".lastName", p.LastName)
	v.Email(field+".email", p.Email)
}

// ICO checks a company registration id.
func (v *Validator) ICO(field, ico string) {
	ico = strings.TrimSpace(ico)
	if ico == "" {
		v.AddError(field, "must not be empty")
		return
	}
	digits := true
	for _, r := range ico {
		if !unicode.IsDigit(r) {
			digits = false
			break
		}
	}
	v.Check(digits && len(ico) >= MinICOLength && len(ico) <= MaxICOLength, field,
		fmt.Sprintf("must be %d to %d digits", MinICOLength, MaxICOLength))
}
