package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"
	"paydesk/internal/logging"
	"paydesk/internal/models"
	"paydesk/internal/repositories/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	for _, id := range []string{"c-1", "c-2", "c-3"} {
		require.NoError(t, s.SaveRecord(context.Background(), onboarding.NewRecord(id)))
	}
	s.PutWarehouseItem(&models.WarehouseItem{ID: "w1", Name: "A920", SKU: "PAX-A920", Quantity: 3, Price: decimal.RequireFromString("12.5"), Status: "in_stock"})
	s.PutWarehouseItem(&models.WarehouseItem{ID: "w2", Name: "Move/5000", Quantity: 1, Price: decimal.NewFromInt(25), Status: "in_stock"})
	return s
}

func TestUpdateRejectsColumnsOutsideWhitelist(t *testing.T) {
	store := newStore(t)
	svc := NewService(store, logging.Discard())

	_, err := svc.Update(context.Background(), Contracts, []string{"c-1"}, map[string]any{"id": "x"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Update(context.Background(), Contracts, []string{"c-1"}, map[string]any{"status": "archived"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Update(context.Background(), WarehouseItems, []string{"w1"}, map[string]any{"quantity": 1.5})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Update(context.Background(), WarehouseItems, []string{"w1"}, map[string]any{"price": "abc"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Update(context.Background(), "users", []string{"1"}, map[string]any{"status": "x"})
	assert.ErrorIs(t, err, ErrUnknownCollection)

	assert.Zero(t, store.Calls("UpdateRow"))
}

func TestPriceAcceptsDecimalStrings(t *testing.T) {
	for _, v := range []any{"12.50", " 3 ", 4.5, json.Number("7.25")} {
		assert.NoError(t, isNumber(v), "%v", v)
	}
	for _, v := range []any{"abc", "", "1,5", json.Number("x"), true} {
		assert.Error(t, isNumber(v), "%v", v)
	}
}

func TestUpdateIsolatesRows(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	store.FailOn("UpdateRow:c-2", errors.New("deadlock"))
	svc := NewService(store, logging.Discard())

	report, err := svc.Update(ctx, Contracts, []string{"c-1", "c-2", "c-3", "c-1", "missing"}, map[string]any{"status": "signed"})
	require.Error(t, err)
	assert.Equal(t, []string{"c-1", "c-3"}, report.Succeeded)
	assert.Len(t, report.Failed, 2)
	assert.Contains(t, report.Failed, "c-2")
	assert.Contains(t, report.Failed, "missing")

	for _, id := range []string{"c-1", "c-3"} {
		rec, err := store.LoadRecord(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, onboarding.StatusSigned, rec.Status)
	}
	rec, err := store.LoadRecord(ctx, "c-2")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusDraft, rec.Status)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewService(store, logging.Discard())

	_, err := svc.Delete(ctx, Contracts, []string{"c-1"}, false)
	assert.ErrorIs(t, err, apperrors.ErrConfirmationRequired)
	assert.Zero(t, store.Calls("DeleteRow"))

	report, err := svc.Delete(ctx, Contracts, []string{"c-1", "c-9"}, true)
	require.Error(t, err)
	assert.Equal(t, []string{"c-1"}, report.Succeeded)
	assert.Contains(t, report.Failed, "c-9")

	ids, err := store.ListContractIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-2", "c-3"}, ids)
}

func TestExportWritesCSV(t *testing.T) {
	store := newStore(t)
	svc := NewService(store, logging.Discard())

	var buf bytes.Buffer
	n, err := svc.Export(context.Background(), WarehouseItems, []string{"w2", "w1", "nope"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t,
		"id,name,sku,category,quantity,price,status\n"+
			"w1,A920,PAX-A920,,3,12.5,in_stock\n"+
			"w2,Move/5000,,,1,25,in_stock\n",
		buf.String())

	_, err = svc.Export(context.Background(), WarehouseItems, nil, &buf)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, "0.25", formatCell(0.25))
	assert.Equal(t, "100", formatCell(float64(100)))
	assert.Equal(t, "true", formatCell(true))
	assert.Equal(t, `{"city":"Nitra"}`, formatCell(map[string]any{"city": "Nitra"}))
}
