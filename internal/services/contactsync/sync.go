// Package contactsync keeps records that were auto-filled from contact data
// in step with their source until the user edits them directly.
//
// A derived entity carries a SourceLink with the values last copied from
// its source. While the entity's own fields still equal that snapshot it is
// considered linked and receives source edits; once they differ, sync for
// that entity stops. Entities flagged createdFromContact without a stored
// link are compared against the previous source values instead.
package contactsync

import (
	"strings"

	"paydesk/internal/domain/onboarding"
)

// Patch holds replacement collections; nil means unchanged.
type Patch struct {
	AuthorizedPersons []*onboarding.AuthorizedPerson
	ActualOwners      []*onboarding.ActualOwner
	BusinessLocations []*onboarding.BusinessLocation
}

func (p Patch) Empty() bool {
	return p.AuthorizedPersons == nil && p.ActualOwners == nil && p.BusinessLocations == nil
}

type sourceChange struct {
	source onboarding.Source
	prev   onboarding.ContactSnapshot
	curr   onboarding.ContactSnapshot
}

// Sync compares the contact sources of prev and curr and returns the
// collections of curr that need updating.
func Sync(prev, curr *onboarding.Record) Patch {
	if curr == nil {
		return Patch{}
	}
	changes := changedSources(prev, curr)
	if len(changes) == 0 {
		return Patch{}
	}

	var patch Patch
	if next, changed := syncPersons(curr.AuthorizedPersons, changes); changed {
		patch.AuthorizedPersons = next
	}
	if next, changed := syncOwners(curr.ActualOwners, changes); changed {
		patch.ActualOwners = next
	}
	if next, changed := syncLocations(curr.BusinessLocations, changes); changed {
		patch.BusinessLocations = next
	}
	return patch
}

func changedSources(prev, curr *onboarding.Record) []sourceChange {
	var changes []sourceChange

	var prevContact, currContact onboarding.ContactSnapshot
	if prev != nil {
		prevContact = prev.ContactInfo.Snapshot()
	}
	currContact = curr.ContactInfo.Snapshot()
	if prevContact != currContact {
		changes = append(changes, sourceChange{onboarding.SourceContactInfo, prevContact, currContact})
	}

	var prevCompany, currCompany onboarding.ContactSnapshot
	if prev != nil && prev.CompanyInfo != nil {
		prevCompany = prev.CompanyInfo.ContactPerson.Snapshot()
	}
	if curr.CompanyInfo != nil {
		currCompany = curr.CompanyInfo.ContactPerson.Snapshot()
	}
	if prevCompany != currCompany {
		changes = append(changes, sourceChange{onboarding.SourceCompanyContact, prevCompany, currCompany})
	}
	return changes
}

// baseline returns the values the entity must still hold to count as linked.
func baseline(link *onboarding.SourceLink, createdFromContact bool, ch sourceChange) (onboarding.ContactSnapshot, bool) {
	if link != nil {
		if link.Source != ch.source {
			return onboarding.ContactSnapshot{}, false
		}
		return link.Snapshot, true
	}
	if createdFromContact {
		return ch.prev, true
	}
	return onboarding.ContactSnapshot{}, false
}

// nonBlank guards both sides of a match: a blank baseline never matches and a
// cleared source never wipes a derived entity.
func nonBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func syncPersons(persons []*onboarding.AuthorizedPerson, changes []sourceChange) ([]*onboarding.AuthorizedPerson, bool) {
	out := make([]*onboarding.AuthorizedPerson, len(persons))
	changed := false
	for i, p := range persons {
		out[i] = p
		if p == nil {
			continue
		}
		for _, ch := range changes {
			base, ok := baseline(out[i].Link, out[i].CreatedFromContact, ch)
			if !ok || !nonBlank(base.FirstName, base.LastName, base.Email) ||
				!nonBlank(ch.curr.FirstName, ch.curr.LastName, ch.curr.Email) {
				continue
			}
			cur := out[i]
			if cur.FirstName != base.FirstName || cur.LastName != base.LastName || cur.Email != base.Email {
				continue
			}
			next := *cur
			next.FirstName = ch.curr.FirstName
			next.LastName = ch.curr.LastName
			next.Email = ch.curr.Email
			next.Phone = ch.curr.Phone
			next.PhonePrefix = ch.curr.PhonePrefix
			next.Link = &onboarding.SourceLink{Source: ch.source, Snapshot: ch.curr}
			if personEqual(cur, &next) {
				continue
			}
			out[i] = &next
			changed = true
		}
	}
	return out, changed
}

func syncOwners(owners []*onboarding.ActualOwner, changes []sourceChange) ([]*onboarding.ActualOwner, bool) {
	out := make([]*onboarding.ActualOwner, len(owners))
	changed := false
	for i, o := range owners {
		out[i] = o
		if o == nil {
			continue
		}
		for _, ch := range changes {
			base, ok := baseline(out[i].Link, out[i].CreatedFromContact, ch)
			if !ok || !nonBlank(base.FirstName, base.LastName) ||
				!nonBlank(ch.curr.FirstName, ch.curr.LastName) {
				continue
			}
			cur := out[i]
			if cur.FirstName != base.FirstName || cur.LastName != base.LastName {
				continue
			}
			next := *cur
			next.FirstName = ch.curr.FirstName
			next.LastName = ch.curr.LastName
			next.Link = &onboarding.SourceLink{Source: ch.source, Snapshot: ch.curr}
			if ownerEqual(cur, &next) {
				continue
			}
			out[i] = &next
			changed = true
		}
	}
	return out, changed
}

func syncLocations(locations []*onboarding.BusinessLocation, changes []sourceChange) ([]*onboarding.BusinessLocation, bool) {
	out := make([]*onboarding.BusinessLocation, len(locations))
	changed := false
	for i, l := range locations {
		out[i] = l
		if l == nil || l.ContactPerson == nil {
			continue
		}
		for _, ch := range changes {
			base, ok := baseline(out[i].Link, out[i].CreatedFromContact, ch)
			if !ok || !nonBlank(base.FullName(), base.Email) ||
				!nonBlank(ch.curr.FullName(), ch.curr.Email) {
				continue
			}
			cur := out[i]
			if cur.ContactPerson.Name != base.FullName() || cur.ContactPerson.Email != base.Email {
				continue
			}
			contact := *cur.ContactPerson
			contact.Name = ch.curr.FullName()
			contact.Email = ch.curr.Email
			contact.Phone = ch.curr.Phone
			contact.PhonePrefix = ch.curr.PhonePrefix

			next := *cur
			next.ContactPerson = &contact
			next.Link = &onboarding.SourceLink{Source: ch.source, Snapshot: ch.curr}
			if *cur.ContactPerson == contact {
				continue
			}
			out[i] = &next
			changed = true
		}
	}
	return out, changed
}

// Equality covers only the copied fields: a source edit that leaves them
// unchanged produces no patch.

func personEqual(a, b *onboarding.AuthorizedPerson) bool {
	return a.FirstName == b.FirstName && a.LastName == b.LastName && a.Email == b.Email &&
		a.Phone == b.Phone && a.PhonePrefix == b.PhonePrefix
}

func ownerEqual(a, b *onboarding.ActualOwner) bool {
	return a.FirstName == b.FirstName && a.LastName == b.LastName
}
