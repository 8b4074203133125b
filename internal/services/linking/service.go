// Package linking attaches every contract to the merchant entity matching
// its company identity, creating the merchant when none exists yet.
package linking

import (
	"context"
	"errors"
	"strings"

	"paydesk/internal/domain/onboarding"
	"paydesk/internal/repositories"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

const ReasonMissingData = "missing_data"

// Store is the persistence the workflow needs.
type Store interface {
	LoadRecord(ctx context.Context, contractID string) (*onboarding.Record, error)
	ListContractIDs(ctx context.Context) ([]string, error)
	SetContractMerchant(ctx context.Context, contractID, merchantID string) error
	FindMerchantByIdentity(ctx context.Context, companyName, ico string) (*onboarding.Merchant, error)
	CreateMerchant(ctx context.Context, m *onboarding.Merchant) error
}

// Result describes one EnsureMerchant run. Success with Existed means the
// contract already carried a merchant reference.
type Result struct {
	ContractID string `json:"contractId"`
	Success    bool   `json:"success"`
	Existed    bool   `json:"existed,omitempty"`
	Created    bool   `json:"created,omitempty"`
	MerchantID string `json:"merchantId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

type BatchReport struct {
	Total         int      `json:"total"`
	Fixed         int      `json:"fixed"`
	AlreadyLinked int      `json:"alreadyLinked"`
	Skipped       int      `json:"skipped"`
	Errored       int      `json:"errored"`
	Results       []Result `json:"results"`
}

type Service struct {
	store Store
	log   logrus.FieldLogger
}

func NewService(store Store, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, log: log.WithField("component", "linking")}
}

// EnsureMerchant links the contract to its merchant. It is idempotent: a
// second call for the same contract reports Existed and creates nothing.
// Contracts without company identity are skipped even when already linked.
func (s *Service) EnsureMerchant(ctx context.Context, contractID string) Result {
	res := Result{ContractID: contractID}
	log := s.log.WithField("contract_id", contractID)

	rec, err := s.store.LoadRecord(ctx, contractID)
	if err != nil {
		log.WithError(err).Error("Failed to load contract for linking")
		return fail(res, err)
	}

	if !rec.CompanyInfo.Identifiable() {
		log.Debug("Skipping contract without company identity")
		res.Reason = ReasonMissingData
		return res
	}

	if rec.MerchantID != "" {
		res.Success = true
		res.Existed = true
		res.MerchantID = rec.MerchantID
		return res
	}

	name := strings.TrimSpace(rec.CompanyInfo.CompanyName)
	ico := strings.TrimSpace(rec.CompanyInfo.ICO)

	merchant, created, err := s.findOrCreate(ctx, rec, name, ico)
	if err != nil {
		log.WithError(err).Error("Failed to resolve merchant")
		return fail(res, err)
	}

	if err := s.store.SetContractMerchant(ctx, contractID, merchant.ID); err != nil {
		log.WithError(err).Error("Failed to write merchant reference")
		return fail(res, err)
	}

	log.WithFields(logrus.Fields{
		"merchant_id": merchant.ID,
		"created":     created,
	}).Info("Contract linked to merchant")

	res.Success = true
	res.Created = created
	res.MerchantID = merchant.ID
	return res
}

func (s *Service) findOrCreate(ctx context.Context, rec *onboarding.Record, name, ico string) (*onboarding.Merchant, bool, error) {
	existing, err := s.store.FindMerchantByIdentity(ctx, name, ico)
	if err == nil {
		return existing, false, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, false, err
	}

	m := NewMerchant(rec)
	m.CompanyName = name
	m.ICO = ico
	err = s.store.CreateMerchant(ctx, m)
	if errors.Is(err, repositories.ErrMerchantConflict) {
		// Created concurrently by another run; reuse it.
		existing, err = s.store.FindMerchantByIdentity(ctx, name, ico)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// NewMerchant builds a merchant from the company info. Contact fields the
// company contact person leaves blank are taken from the contact info.
func NewMerchant(rec *onboarding.Record) *onboarding.Merchant {
	c := rec.CompanyInfo
	m := &onboarding.Merchant{
		CompanyName: c.CompanyName,
		ICO:         c.ICO,
		DIC:         c.DIC,
		VATNumber:   c.VATNumber,
		IsVATPayer:  c.IsVATPayer,
	}
	if c.Address != nil {
		addr := *c.Address
		m.Address = &addr
	}

	var person, contact onboarding.ContactSnapshot
	if c.ContactPerson != nil {
		person = c.ContactPerson.Snapshot()
	}
	contact = rec.ContactInfo.Snapshot()

	m.ContactFirstName = firstNonBlank(person.FirstName, contact.FirstName)
	m.ContactLastName = firstNonBlank(person.LastName, contact.LastName)
	m.Email = firstNonBlank(person.Email, contact.Email)
	m.Phone = firstNonBlank(person.Phone, contact.Phone)
	m.PhonePrefix = firstNonBlank(person.PhonePrefix, contact.PhonePrefix)
	return m
}

// FixAll runs EnsureMerchant over every contract. One failing contract
// never stops the batch; the returned error aggregates the failures.
func (s *Service) FixAll(ctx context.Context) (BatchReport, error) {
	var report BatchReport

	ids, err := s.store.ListContractIDs(ctx)
	if err != nil {
		return report, err
	}

	var errs error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		res := s.EnsureMerchant(ctx, id)
		report.Results = append(report.Results, res)
		report.Total++
		switch {
		case res.Error != "":
			report.Errored++
			errs = multierror.Append(errs, errors.New(id+": "+res.Error))
		case res.Reason != "":
			report.Skipped++
		case res.Existed:
			report.AlreadyLinked++
		default:
			report.Fixed++
		}
	}

	s.log.WithFields(logrus.Fields{
		"total":          report.Total,
		"fixed":          report.Fixed,
		"already_linked": report.AlreadyLinked,
		"skipped":        report.Skipped,
		"errored":        report.Errored,
	}).Info("Merchant link repair finished")

	return report, errs
}

func fail(res Result, err error) Result {
	res.Success = false
	res.Error = err.Error()
	return res
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
