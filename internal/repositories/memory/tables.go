package memory

import (
	"context"
	"encoding/json"
	"sort"

	"paydesk/internal/domain/onboarding"
	"paydesk/internal/models"
	"paydesk/internal/repositories"
)

// Admin tables are addressed through the JSON form of their row model,
// whose field names equal the postgres column names.

func toRow(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	row := map[string]any{}
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func fromRow(row map[string]any, dest any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func merge(row, fields map[string]any) {
	for k, v := range fields {
		row[k] = v
	}
}

func contractRow(rec *onboarding.Record) *models.Contract {
	row := &models.Contract{ID: rec.ContractID, Status: string(rec.Status)}
	if rec.MerchantID != "" {
		id := rec.MerchantID
		row.MerchantID = &id
	}
	return row
}

func (s *Store) UpdateRow(_ context.Context, table, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateRow", id); err != nil {
		return err
	}

	switch table {
	case "contracts":
		rec, ok := s.records[id]
		if !ok {
			return notFound("contracts row")
		}
		row, err := toRow(contractRow(rec))
		if err != nil {
			return err
		}
		merge(row, fields)
		var updated models.Contract
		if err := fromRow(row, &updated); err != nil {
			return err
		}
		rec.Status = onboarding.Status(updated.Status)
		rec.MerchantID = ""
		if updated.MerchantID != nil {
			rec.MerchantID = *updated.MerchantID
		}
		return nil

	case "merchants":
		m, ok := s.merchants[id]
		if !ok {
			return notFound("merchants row")
		}
		row, err := toRow(models.NewMerchant(m))
		if err != nil {
			return err
		}
		merge(row, fields)
		var updated models.Merchant
		if err := fromRow(row, &updated); err != nil {
			return err
		}
		dm, err := updated.ToDomain()
		if err != nil {
			return err
		}
		s.merchants[id] = dm
		return nil

	case "warehouse_items":
		item, ok := s.items[id]
		if !ok {
			return notFound("warehouse_items row")
		}
		row, err := toRow(item)
		if err != nil {
			return err
		}
		merge(row, fields)
		var updated models.WarehouseItem
		if err := fromRow(row, &updated); err != nil {
			return err
		}
		s.items[id] = &updated
		return nil
	}
	return repositories.ErrUnknownTable
}

func (s *Store) DeleteRow(_ context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteRow", id); err != nil {
		return err
	}

	switch table {
	case "contracts":
		if _, ok := s.records[id]; !ok {
			return notFound("contracts row")
		}
		delete(s.records, id)
		delete(s.persons, id)
		delete(s.owners, id)
		for i, cid := range s.order {
			if cid == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
		return nil
	case "merchants":
		if _, ok := s.merchants[id]; !ok {
			return notFound("merchants row")
		}
		delete(s.merchants, id)
		return nil
	case "warehouse_items":
		if _, ok := s.items[id]; !ok {
			return notFound("warehouse_items row")
		}
		delete(s.items, id)
		return nil
	}
	return repositories.ErrUnknownTable
}

func (s *Store) FetchRows(_ context.Context, table string, ids []string) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchRows", ""); err != nil {
		return nil, err
	}

	var rows []map[string]any
	for _, id := range ids {
		var (
			v  any
			ok bool
		)
		switch table {
		case "contracts":
			var rec *onboarding.Record
			if rec, ok = s.records[id]; ok {
				v = contractRow(rec)
			}
		case "merchants":
			var m *onboarding.Merchant
			if m, ok = s.merchants[id]; ok {
				v = models.NewMerchant(m)
			}
		case "warehouse_items":
			v, ok = s.items[id]
		default:
			return nil, repositories.ErrUnknownTable
		}
		if !ok {
			continue
		}
		row, err := toRow(v)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, _ := rows[i]["id"].(string)
		b, _ := rows[j]["id"].(string)
		return a < b
	})
	return rows, nil
}
