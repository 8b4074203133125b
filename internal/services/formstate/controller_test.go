package formstate

import (
	"testing"

	"paydesk/internal/domain/onboarding"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecord() *onboarding.Record {
	rec := onboarding.NewRecord("c-1")
	rec.ContactInfo = &onboarding.ContactInfo{FirstName: "Ján", LastName: "Novák", Email: "jan@x.sk"}
	rec.CompanyInfo = &onboarding.CompanyInfo{
		CompanyName:   "Novák s.r.o.",
		ICO:           "12345678",
		Address:       &onboarding.Address{City: "Bratislava", Street: "Hlavná"},
		ContactPerson: &onboarding.ContactPerson{FirstName: "Ján"},
	}
	rec.BusinessLocations = []*onboarding.BusinessLocation{
		{ID: "l1", Name: "Shop"},
		{ID: "l2", Name: "Kiosk"},
	}
	return rec
}

func TestUpdateField_DoesNotMutatePrevious(t *testing.T) {
	prev := seedRecord()
	prevCompany := prev.CompanyInfo
	prevAddress := prev.CompanyInfo.Address
	c := New(prev)

	require.NoError(t, c.UpdateField("companyInfo.address.city", "X"))
	curr := c.Record()

	assert.Equal(t, "Bratislava", prev.CompanyInfo.Address.City)
	assert.Same(t, prevCompany, prev.CompanyInfo)
	assert.Same(t, prevAddress, prev.CompanyInfo.Address)

	assert.Equal(t, "X", curr.CompanyInfo.Address.City)
	assert.NotSame(t, prev, curr)
	assert.NotSame(t, prevCompany, curr.CompanyInfo)
	assert.NotSame(t, prevAddress, curr.CompanyInfo.Address)

	// Siblings keep their identity.
	assert.Same(t, prev.ContactInfo, curr.ContactInfo)
	assert.Same(t, prev.CompanyInfo.ContactPerson, curr.CompanyInfo.ContactPerson)
	assert.Equal(t, "Hlavná", curr.CompanyInfo.Address.Street)
	assert.True(t, c.IsDirty())
}

func TestUpdateField_SynthesizesMissingStructure(t *testing.T) {
	c := New(nil)

	require.NoError(t, c.UpdateField("companyInfo.address.city", "Košice"))

	rec := c.Record()
	require.NotNil(t, rec)
	require.NotNil(t, rec.CompanyInfo)
	require.NotNil(t, rec.CompanyInfo.Address)
	assert.Equal(t, "Košice", rec.CompanyInfo.Address.City)
	assert.Nil(t, rec.ContactInfo)
}

func TestUpdateField_SliceIndex(t *testing.T) {
	prev := seedRecord()
	c := New(prev)

	require.NoError(t, c.UpdateField("businessLocations.1.contactPerson.email", "kiosk@x.sk"))
	curr := c.Record()

	assert.Same(t, prev.BusinessLocations[0], curr.BusinessLocations[0])
	assert.NotSame(t, prev.BusinessLocations[1], curr.BusinessLocations[1])
	assert.Nil(t, prev.BusinessLocations[1].ContactPerson)
	assert.Equal(t, "kiosk@x.sk", curr.BusinessLocations[1].ContactPerson.Email)

	// One past the end appends.
	require.NoError(t, c.UpdateField("businessLocations.2.name", "Warehouse"))
	assert.Len(t, c.Record().BusinessLocations, 3)
	assert.Len(t, curr.BusinessLocations, 2)

	err := c.UpdateField("businessLocations.9.name", "nope")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestUpdateField_DecodesValues(t *testing.T) {
	c := New(seedRecord())

	require.NoError(t, c.UpdateField("businessLocations.0.seasonalWeeks", float64(12)))
	require.NoError(t, c.UpdateField("businessLocations.0.monthlyTurnover", "1500.25"))
	require.NoError(t, c.UpdateField("status", "submitted"))
	require.NoError(t, c.UpdateField("contactInfo", map[string]any{"firstName": "Peter", "roles": []any{"owner"}}))

	rec := c.Record()
	assert.Equal(t, 12, rec.BusinessLocations[0].SeasonalWeeks)
	assert.True(t, decimal.RequireFromString("1500.25").Equal(rec.BusinessLocations[0].MonthlyTurnover))
	assert.Equal(t, onboarding.StatusSubmitted, rec.Status)
	assert.Equal(t, "Peter", rec.ContactInfo.FirstName)
	assert.Empty(t, rec.ContactInfo.Email)
	assert.True(t, rec.ContactInfo.HasRole(onboarding.RoleOwner))
}

func TestUpdateField_Errors(t *testing.T) {
	c := New(seedRecord())

	assert.ErrorIs(t, c.UpdateField("", "x"), ErrInvalidPath)
	assert.ErrorIs(t, c.UpdateField("companyInfo..city", "x"), ErrInvalidPath)
	assert.ErrorIs(t, c.UpdateField("companyInfo.nope", "x"), ErrInvalidPath)
	assert.ErrorIs(t, c.UpdateField("contactInfo.firstName.deeper", "x"), ErrInvalidPath)
	assert.ErrorIs(t, c.UpdateField("businessLocations.0.seasonalWeeks", "many"), ErrInvalidValue)
	assert.False(t, c.IsDirty())
}

func TestUpdateSection_MergesShallow(t *testing.T) {
	prev := seedRecord()
	c := New(prev)

	require.NoError(t, c.UpdateSection("companyInfo", map[string]any{
		"dic":        "2020123456",
		"isVatPayer": true,
	}))
	curr := c.Record()

	assert.Equal(t, "2020123456", curr.CompanyInfo.DIC)
	assert.True(t, curr.CompanyInfo.IsVATPayer)
	assert.Equal(t, "Novák s.r.o.", curr.CompanyInfo.CompanyName)
	assert.Same(t, prev.CompanyInfo.Address, curr.CompanyInfo.Address)
	assert.Empty(t, prev.CompanyInfo.DIC)

	require.NoError(t, c.UpdateSection("consents", map[string]any{"gdprConsent": true}))
	assert.True(t, c.Record().Consents.GDPRConsent)

	assert.ErrorIs(t, c.UpdateSection("companyInfo", map[string]any{"unknown": 1}), ErrInvalidPath)
	assert.ErrorIs(t, c.UpdateSection("contactInfo.firstName", map[string]any{"x": 1}), ErrInvalidPath)
}

func TestResetAndDirtyFlags(t *testing.T) {
	c := New(seedRecord())
	require.NoError(t, c.UpdateField("contactInfo.phone", "900123456"))
	assert.True(t, c.IsDirty())

	c.MarkClean()
	assert.False(t, c.IsDirty())
	c.MarkDirty()
	assert.True(t, c.IsDirty())

	fresh := onboarding.NewRecord("c-2")
	c.ResetForm(fresh)
	assert.Same(t, fresh, c.Record())
	assert.False(t, c.IsDirty())

	require.NoError(t, c.UpdateField("contactInfo.phone", "1"))
	other := onboarding.NewRecord("c-3")
	c.ForceInitialize(other)
	assert.Same(t, other, c.Record())
	assert.False(t, c.IsDirty())
}

func TestSubscribe(t *testing.T) {
	c := New(seedRecord())
	var calls int
	var seenPrev, seenCurr *onboarding.Record
	c.Subscribe(func(prev, curr *onboarding.Record) {
		calls++
		seenPrev, seenCurr = prev, curr
	})

	before := c.Record()
	require.NoError(t, c.UpdateField("contactInfo.firstName", "Peter"))

	assert.Equal(t, 1, calls)
	assert.Same(t, before, seenPrev)
	assert.Same(t, c.Record(), seenCurr)

	_ = c.UpdateField("nope", 1)
	assert.Equal(t, 1, calls)
}
