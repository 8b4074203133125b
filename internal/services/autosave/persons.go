package autosave

import (
	"context"

	"paydesk/internal/domain/onboarding"
)

// PersonStore is the part of the store the person savers write to.
type PersonStore interface {
	UpsertAuthorizedPerson(ctx context.Context, contractID string, p *onboarding.AuthorizedPerson) error
	UpsertActualOwner(ctx context.Context, contractID string, o *onboarding.ActualOwner) error
}

func NewAuthorizedPersonSaver(contractID string, store PersonStore, opts Options) *Saver[*onboarding.AuthorizedPerson] {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.WithField("contract_id", contractID)
	return New("authorized_persons",
		func(p *onboarding.AuthorizedPerson) bool { return p.ReadyToPersist() },
		func(p *onboarding.AuthorizedPerson) string { return p.ID },
		func(ctx context.Context, p *onboarding.AuthorizedPerson) error {
			return store.UpsertAuthorizedPerson(ctx, contractID, p)
		},
		opts,
	)
}

func NewActualOwnerSaver(contractID string, store PersonStore, opts Options) *Saver[*onboarding.ActualOwner] {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.WithField("contract_id", contractID)
	return New("actual_owners",
		func(o *onboarding.ActualOwner) bool { return o.ReadyToPersist() },
		func(o *onboarding.ActualOwner) string { return o.ID },
		func(ctx context.Context, o *onboarding.ActualOwner) error {
			return store.UpsertActualOwner(ctx, contractID, o)
		},
		opts,
	)
}
