// Package bulk applies admin updates, deletes and exports to a selection of
// table rows. Every row is processed on its own; one failing row never
// aborts the rest.
package bulk

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNoRowsSelected    = errors.New("no rows selected")
	ErrNoFields          = errors.New("no fields to update")
)

type Collection string

const (
	Contracts      Collection = "contracts"
	Merchants      Collection = "merchants"
	WarehouseItems Collection = "warehouse_items"
)

type collectionSpec struct {
	// editable columns accepted by Update
	editable map[string]func(any) error
	// exported columns, in CSV order
	columns []string
}

var collections = map[Collection]collectionSpec{
	Contracts: {
		editable: map[string]func(any) error{
			"status":      oneOf(string(onboarding.StatusDraft), string(onboarding.StatusSubmitted), string(onboarding.StatusSigned)),
			"merchant_id": nullableString,
		},
		columns: []string{"id", "status", "merchant_id"},
	},
	Merchants: {
		editable: map[string]func(any) error{
			"dic":                isString,
			"vat_number":         isString,
			"is_vat_payer":       isBool,
			"contact_first_name": isString,
			"contact_last_name":  isString,
			"email":              isString,
			"phone":              isString,
			"phone_prefix":       isString,
		},
		columns: []string{
			"id", "company_name", "ico", "dic", "vat_number", "is_vat_payer",
			"contact_first_name", "contact_last_name", "email", "phone", "phone_prefix",
		},
	},
	WarehouseItems: {
		editable: map[string]func(any) error{
			"name":     isString,
			"sku":      isString,
			"category": isString,
			"quantity": isInteger,
			"price":    isNumber,
			"status":   oneOf("in_stock", "reserved", "deployed", "retired"),
		},
		columns: []string{"id", "name", "sku", "category", "quantity", "price", "status"},
	},
}

// Store addresses table rows by id.
type Store interface {
	UpdateRow(ctx context.Context, table, id string, fields map[string]any) error
	DeleteRow(ctx context.Context, table, id string) error
	FetchRows(ctx context.Context, table string, ids []string) ([]map[string]any, error)
}

// Report lists the rows an operation succeeded and failed on.
type Report struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}

func (r *Report) fail(id string, err error) {
	if r.Failed == nil {
		r.Failed = map[string]string{}
	}
	r.Failed[id] = err.Error()
}

type Service struct {
	store Store
	log   logrus.FieldLogger
}

func NewService(store Store, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, log: log.WithField("component", "bulk")}
}

// Columns returns the exported columns of a collection.
func Columns(coll Collection) ([]string, error) {
	spec, ok := collections[coll]
	if !ok {
		return nil, ErrUnknownCollection
	}
	return append([]string(nil), spec.columns...), nil
}

// Update writes fields to every selected row. Fields outside the
// collection's whitelist reject the whole request before any row is touched.
// The returned error aggregates per-row failures.
func (s *Service) Update(ctx context.Context, coll Collection, ids []string, fields map[string]any) (Report, error) {
	var report Report
	spec, ok := collections[coll]
	if !ok {
		return report, ErrUnknownCollection
	}
	if len(ids) == 0 {
		return report, apperrors.Wrap(apperrors.ErrValidation, ErrNoRowsSelected)
	}
	if len(fields) == 0 {
		return report, apperrors.Wrap(apperrors.ErrValidation, ErrNoFields)
	}
	for _, name := range sortedKeys(fields) {
		check, ok := spec.editable[name]
		if !ok {
			return report, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("column %q is not editable", name))
		}
		if err := check(fields[name]); err != nil {
			return report, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("column %q: %v", name, err))
		}
	}

	var errs error
	for _, id := range dedupe(ids) {
		if err := s.store.UpdateRow(ctx, string(coll), id, fields); err != nil {
			report.fail(id, err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		report.Succeeded = append(report.Succeeded, id)
	}

	s.log.WithFields(logrus.Fields{
		"collection": coll,
		"succeeded":  len(report.Succeeded),
		"failed":     len(report.Failed),
	}).Info("Bulk update finished")
	return report, errs
}

// Delete removes every selected row. It refuses to run unless confirmed.
func (s *Service) Delete(ctx context.Context, coll Collection, ids []string, confirmed bool) (Report, error) {
	var report Report
	if _, ok := collections[coll]; !ok {
		return report, ErrUnknownCollection
	}
	if len(ids) == 0 {
		return report, apperrors.Wrap(apperrors.ErrValidation, ErrNoRowsSelected)
	}
	if !confirmed {
		return report, apperrors.ErrConfirmationRequired
	}

	var errs error
	for _, id := range dedupe(ids) {
		if err := s.store.DeleteRow(ctx, string(coll), id); err != nil {
			report.fail(id, err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		report.Succeeded = append(report.Succeeded, id)
	}

	s.log.WithFields(logrus.Fields{
		"collection": coll,
		"deleted":    len(report.Succeeded),
		"failed":     len(report.Failed),
	}).Warn("Bulk delete finished")
	return report, errs
}

// Export writes the selected rows as CSV with a header line. Ids that do
// not exist are left out.
func (s *Service) Export(ctx context.Context, coll Collection, ids []string, w io.Writer) (int, error) {
	spec, ok := collections[coll]
	if !ok {
		return 0, ErrUnknownCollection
	}
	if len(ids) == 0 {
		return 0, apperrors.Wrap(apperrors.ErrValidation, ErrNoRowsSelected)
	}

	rows, err := s.store.FetchRows(ctx, string(coll), dedupe(ids))
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(spec.columns); err != nil {
		return 0, err
	}
	record := make([]string, len(spec.columns))
	for _, row := range rows {
		for i, col := range spec.columns {
			record[i] = formatCell(row[col])
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(rows), cw.Error()
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		data, _ := json.Marshal(t)
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isString(v any) error {
	if _, ok := v.(string); !ok {
		return errors.New("must be a string")
	}
	return nil
}

func nullableString(v any) error {
	if v == nil {
		return nil
	}
	return isString(v)
}

func isBool(v any) error {
	if _, ok := v.(bool); !ok {
		return errors.New("must be a boolean")
	}
	return nil
}

// isNumber accepts JSON numbers and decimal strings such as "12.50".
func isNumber(v any) error {
	switch t := v.(type) {
	case float64, float32, int, int64, int32:
		return nil
	case json.Number:
		if _, err := decimal.NewFromString(t.String()); err == nil {
			return nil
		}
	case string:
		if _, err := decimal.NewFromString(strings.TrimSpace(t)); err == nil {
			return nil
		}
	}
	return errors.New("must be a number")
}

func isInteger(v any) error {
	switch t := v.(type) {
	case int, int64, int32:
		return nil
	case float64:
		if t == float64(int64(t)) {
			return nil
		}
	}
	return errors.New("must be a whole number")
}

func oneOf(allowed ...string) func(any) error {
	return func(v any) error {
		s, ok := v.(string)
		if !ok {
			return errors.New("must be a string")
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}
