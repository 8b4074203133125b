package models

import (
	"paydesk/internal/domain/onboarding"
)

// Mappers between onboarding records and their flat snake_case rows.

func NewContact(contractID string, c *onboarding.ContactInfo) *ContactInfo {
	if c == nil {
		return nil
	}
	return &ContactInfo{
		ContractID:  contractID,
		Salutation:  c.Salutation,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		PhonePrefix: c.PhonePrefix,
		SalesNote:   c.SalesNote,
		Roles:       c.Roles,
	}
}

func (r *ContactInfo) ToDomain() *onboarding.ContactInfo {
	if r == nil {
		return nil
	}
	return &onboarding.ContactInfo{
		Salutation:  r.Salutation,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		PhonePrefix: r.PhonePrefix,
		SalesNote:   r.SalesNote,
		Roles:       []string(r.Roles),
	}
}

func NewCompany(contractID string, c *onboarding.CompanyInfo) *CompanyInfo {
	if c == nil {
		return nil
	}
	row := &CompanyInfo{
		ContractID:                 contractID,
		ICO:                        c.ICO,
		DIC:                        c.DIC,
		CompanyName:                c.CompanyName,
		RegistryType:               string(c.RegistryType),
		IsVATPayer:                 c.IsVATPayer,
		VATNumber:                  c.VATNumber,
		Court:                      c.Court,
		Section:                    c.Section,
		InsertNumber:               c.InsertNumber,
		HasDifferentContactAddress: c.HasDifferentContactAddress,
		ContactAddress:             ToJSON(c.ContactAddress),
	}
	if a := c.Address; a != nil {
		row.HasAddress = true
		row.Street = a.Street
		row.StreetNumber = a.Number
		row.City = a.City
		row.ZipCode = a.ZipCode
		row.Country = a.Country
	}
	if p := c.ContactPerson; p != nil {
		row.HasContactPerson = true
		row.ContactFirstName = p.FirstName
		row.ContactLastName = p.LastName
		row.ContactEmail = p.Email
		row.ContactPhone = p.Phone
		row.ContactPhonePrefix = p.PhonePrefix
		row.ContactIsTechnical = p.IsTechnicalPerson
	}
	return row
}

func (r *CompanyInfo) ToDomain() (*onboarding.CompanyInfo, error) {
	if r == nil {
		return nil, nil
	}
	c := &onboarding.CompanyInfo{
		ICO:                        r.ICO,
		DIC:                        r.DIC,
		CompanyName:                r.CompanyName,
		RegistryType:               onboarding.RegistryType(r.RegistryType),
		IsVATPayer:                 r.IsVATPayer,
		VATNumber:                  r.VATNumber,
		Court:                      r.Court,
		Section:                    r.Section,
		InsertNumber:               r.InsertNumber,
		HasDifferentContactAddress: r.HasDifferentContactAddress,
	}
	if r.HasAddress {
		c.Address = &onboarding.Address{
			Street:  r.Street,
			Number:  r.StreetNumber,
			City:    r.City,
			ZipCode: r.ZipCode,
			Country: r.Country,
		}
	}
	if r.HasContactPerson {
		c.ContactPerson = &onboarding.ContactPerson{
			FirstName:         r.ContactFirstName,
			LastName:          r.ContactLastName,
			Email:             r.ContactEmail,
			Phone:             r.ContactPhone,
			PhonePrefix:       r.ContactPhonePrefix,
			IsTechnicalPerson: r.ContactIsTechnical,
		}
	}
	if len(r.ContactAddress) > 0 {
		c.ContactAddress = &onboarding.Address{}
		if err := FromJSON(r.ContactAddress, c.ContactAddress); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func NewLocation(contractID string, order int, l *onboarding.BusinessLocation) *BusinessLocation {
	row := &BusinessLocation{
		ID:                   l.ID,
		ContractID:           contractID,
		SortOrder:            order,
		Name:                 l.Name,
		HasPOS:               l.HasPOS,
		Address:              ToJSON(l.Address),
		IBAN:                 l.IBAN,
		BankAccounts:         ToJSON(l.BankAccounts),
		BusinessSector:       l.BusinessSector,
		BusinessSubject:      l.BusinessSubject,
		MCCCode:              l.MCCCode,
		EstimatedTurnover:    l.EstimatedTurnover,
		MonthlyTurnover:      l.MonthlyTurnover,
		AverageTransaction:   l.AverageTransaction,
		OpeningHours:         l.OpeningHours,
		OpeningHoursDetailed: ToJSON(l.OpeningHoursDetailed),
		Seasonality:          string(l.Seasonality),
		SeasonalWeeks:        l.SeasonalWeeks,
		CreatedFromContact:   l.CreatedFromContact,
		SyncLink:             ToJSON(l.Link),
	}
	if cp := l.ContactPerson; cp != nil {
		row.HasContactPerson = true
		row.ContactName = cp.Name
		row.ContactEmail = cp.Email
		row.ContactPhone = cp.Phone
		row.ContactPhonePrefix = cp.PhonePrefix
	}
	return row
}

func (r *BusinessLocation) ToDomain() (*onboarding.BusinessLocation, error) {
	l := &onboarding.BusinessLocation{
		ID:                 r.ID,
		Name:               r.Name,
		HasPOS:             r.HasPOS,
		IBAN:               r.IBAN,
		BusinessSector:     r.BusinessSector,
		BusinessSubject:    r.BusinessSubject,
		MCCCode:            r.MCCCode,
		EstimatedTurnover:  r.EstimatedTurnover,
		MonthlyTurnover:    r.MonthlyTurnover,
		AverageTransaction: r.AverageTransaction,
		OpeningHours:       r.OpeningHours,
		Seasonality:        onboarding.Seasonality(r.Seasonality),
		SeasonalWeeks:      r.SeasonalWeeks,
		CreatedFromContact: r.CreatedFromContact,
	}
	if r.HasContactPerson {
		l.ContactPerson = &onboarding.LocationContact{
			Name:        r.ContactName,
			Email:       r.ContactEmail,
			Phone:       r.ContactPhone,
			PhonePrefix: r.ContactPhonePrefix,
		}
	}
	if len(r.Address) > 0 {
		l.Address = &onboarding.Address{}
		if err := FromJSON(r.Address, l.Address); err != nil {
			return nil, err
		}
	}
	if len(r.SyncLink) > 0 {
		l.Link = &onboarding.SourceLink{}
		if err := FromJSON(r.SyncLink, l.Link); err != nil {
			return nil, err
		}
	}
	if err := FromJSON(r.BankAccounts, &l.BankAccounts); err != nil {
		return nil, err
	}
	if err := FromJSON(r.OpeningHoursDetailed, &l.OpeningHoursDetailed); err != nil {
		return nil, err
	}
	return l, nil
}

func NewDeviceSelection(contractID string, d *onboarding.DeviceSelection) *DeviceSelection {
	if d == nil {
		return nil
	}
	return &DeviceSelection{
		ContractID:        contractID,
		SelectedSolutions: d.SelectedSolutions,
		DynamicCards:      ToJSON(d.DynamicCards),
		Note:              d.Note,
	}
}

func (r *DeviceSelection) ToDomain() (*onboarding.DeviceSelection, error) {
	if r == nil {
		return nil, nil
	}
	d := &onboarding.DeviceSelection{
		SelectedSolutions: []string(r.SelectedSolutions),
		Note:              r.Note,
	}
	if err := FromJSON(r.DynamicCards, &d.DynamicCards); err != nil {
		return nil, err
	}
	return d, nil
}

func NewFees(contractID string, f *onboarding.Fees) *Fees {
	if f == nil {
		return nil
	}
	return &Fees{
		ContractID:        contractID,
		RegulatedCards:    f.RegulatedCards,
		UnregulatedCards:  f.UnregulatedCards,
		CalculatorResults: ToJSON(f.CalculatorResults),
	}
}

func (r *Fees) ToDomain() (*onboarding.Fees, error) {
	if r == nil {
		return nil, nil
	}
	f := &onboarding.Fees{
		RegulatedCards:   r.RegulatedCards,
		UnregulatedCards: r.UnregulatedCards,
	}
	if len(r.CalculatorResults) > 0 {
		f.CalculatorResults = &onboarding.CalculatorResults{}
		if err := FromJSON(r.CalculatorResults, f.CalculatorResults); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func NewAuthorizedPerson(contractID string, p *onboarding.AuthorizedPerson) *AuthorizedPerson {
	return &AuthorizedPerson{
		ID:                   p.ID,
		ContractID:           contractID,
		Salutation:           p.Salutation,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		Email:                p.Email,
		Phone:                p.Phone,
		PhonePrefix:          p.PhonePrefix,
		MaidenName:           p.MaidenName,
		BirthDate:            p.BirthDate,
		BirthNumber:          p.BirthNumber,
		BirthPlace:           p.BirthPlace,
		PermanentAddress:     ToJSON(p.PermanentAddress),
		JobPosition:          p.Position,
		DocumentType:         string(p.DocumentType),
		DocumentNumber:       p.DocumentNumber,
		DocumentValidity:     p.DocumentValidity,
		DocumentIssuer:       p.DocumentIssuer,
		DocumentCountry:      p.DocumentCountry,
		Citizenship:          p.Citizenship,
		IsPoliticallyExposed: p.IsPoliticallyExposed,
		IsUSCitizen:          p.IsUSCitizen,
		DocumentFrontURL:     p.DocumentFrontURL,
		DocumentBackURL:      p.DocumentBackURL,
		CreatedFromContact:   p.CreatedFromContact,
		SyncLink:             ToJSON(p.Link),
	}
}

func (r *AuthorizedPerson) ToDomain() (*onboarding.AuthorizedPerson, error) {
	p := &onboarding.AuthorizedPerson{
		ID:                   r.ID,
		Salutation:           r.Salutation,
		FirstName:            r.FirstName,
		LastName:             r.LastName,
		Email:                r.Email,
		Phone:                r.Phone,
		PhonePrefix:          r.PhonePrefix,
		MaidenName:           r.MaidenName,
		BirthDate:            r.BirthDate,
		BirthNumber:          r.BirthNumber,
		BirthPlace:           r.BirthPlace,
		Position:             r.JobPosition,
		DocumentType:         onboarding.DocumentType(r.DocumentType),
		DocumentNumber:       r.DocumentNumber,
		DocumentValidity:     r.DocumentValidity,
		DocumentIssuer:       r.DocumentIssuer,
		DocumentCountry:      r.DocumentCountry,
		Citizenship:          r.Citizenship,
		IsPoliticallyExposed: r.IsPoliticallyExposed,
		IsUSCitizen:          r.IsUSCitizen,
		DocumentFrontURL:     r.DocumentFrontURL,
		DocumentBackURL:      r.DocumentBackURL,
		CreatedFromContact:   r.CreatedFromContact,
	}
	if len(r.PermanentAddress) > 0 {
		p.PermanentAddress = &onboarding.Address{}
		if err := FromJSON(r.PermanentAddress, p.PermanentAddress); err != nil {
			return nil, err
		}
	}
	if len(r.SyncLink) > 0 {
		p.Link = &onboarding.SourceLink{}
		if err := FromJSON(r.SyncLink, p.Link); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func NewActualOwner(contractID string, o *onboarding.ActualOwner) *ActualOwner {
	return &ActualOwner{
		ID:                   o.ID,
		ContractID:           contractID,
		FirstName:            o.FirstName,
		LastName:             o.LastName,
		MaidenName:           o.MaidenName,
		BirthDate:            o.BirthDate,
		BirthNumber:          o.BirthNumber,
		BirthPlace:           o.BirthPlace,
		Citizenship:          o.Citizenship,
		PermanentAddress:     ToJSON(o.PermanentAddress),
		IsPoliticallyExposed: o.IsPoliticallyExposed,
		CreatedFromContact:   o.CreatedFromContact,
		SyncLink:             ToJSON(o.Link),
	}
}

func (r *ActualOwner) ToDomain() (*onboarding.ActualOwner, error) {
	o := &onboarding.ActualOwner{
		ID:                   r.ID,
		FirstName:            r.FirstName,
		LastName:             r.LastName,
		MaidenName:           r.MaidenName,
		BirthDate:            r.BirthDate,
		BirthNumber:          r.BirthNumber,
		BirthPlace:           r.BirthPlace,
		Citizenship:          r.Citizenship,
		IsPoliticallyExposed: r.IsPoliticallyExposed,
		CreatedFromContact:   r.CreatedFromContact,
	}
	if len(r.PermanentAddress) > 0 {
		o.PermanentAddress = &onboarding.Address{}
		if err := FromJSON(r.PermanentAddress, o.PermanentAddress); err != nil {
			return nil, err
		}
	}
	if len(r.SyncLink) > 0 {
		o.Link = &onboarding.SourceLink{}
		if err := FromJSON(r.SyncLink, o.Link); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func NewConsents(contractID string, c *onboarding.Consents) *Consents {
	if c == nil {
		return nil
	}
	return &Consents{
		ContractID:                     contractID,
		GDPRConsent:                    c.GDPRConsent,
		TermsConsent:                   c.TermsConsent,
		ElectronicCommunicationConsent: c.ElectronicCommunicationConsent,
		SignatureDate:                  c.SignatureDate,
		SigningPersonID:                c.SigningPersonID,
		SignatureURL:                   c.SignatureURL,
	}
}

func (r *Consents) ToDomain() *onboarding.Consents {
	if r == nil {
		return nil
	}
	return &onboarding.Consents{
		GDPRConsent:                    r.GDPRConsent,
		TermsConsent:                   r.TermsConsent,
		ElectronicCommunicationConsent: r.ElectronicCommunicationConsent,
		SignatureDate:                  r.SignatureDate,
		SigningPersonID:                r.SigningPersonID,
		SignatureURL:                   r.SignatureURL,
	}
}

func NewMerchant(m *onboarding.Merchant) *Merchant {
	return &Merchant{
		ID:               m.ID,
		CompanyName:      m.CompanyName,
		ICO:              m.ICO,
		DIC:              m.DIC,
		VATNumber:        m.VATNumber,
		IsVATPayer:       m.IsVATPayer,
		Address:          ToJSON(m.Address),
		ContactFirstName: m.ContactFirstName,
		ContactLastName:  m.ContactLastName,
		Email:            m.Email,
		Phone:            m.Phone,
		PhonePrefix:      m.PhonePrefix,
		CreatedAt:        m.CreatedAt,
	}
}

func (r *Merchant) ToDomain() (*onboarding.Merchant, error) {
	m := &onboarding.Merchant{
		ID:               r.ID,
		CompanyName:      r.CompanyName,
		ICO:              r.ICO,
		DIC:              r.DIC,
		VATNumber:        r.VATNumber,
		IsVATPayer:       r.IsVATPayer,
		ContactFirstName: r.ContactFirstName,
		ContactLastName:  r.ContactLastName,
		Email:            r.Email,
		Phone:            r.Phone,
		PhonePrefix:      r.PhonePrefix,
		CreatedAt:        r.CreatedAt,
	}
	if len(r.Address) > 0 {
		m.Address = &onboarding.Address{}
		if err := FromJSON(r.Address, m.Address); err != nil {
			return nil, err
		}
	}
	return m, nil
}
