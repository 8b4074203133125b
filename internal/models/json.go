package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// ToJSON encodes v for a jsonb column. Encoding errors yield SQL null.
func ToJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return nil
	}
	return datatypes.JSON(data)
}

// FromJSON decodes a jsonb column into dest; an empty column leaves dest
// untouched.
func FromJSON(col datatypes.JSON, dest any) error {
	if len(col) == 0 {
		return nil
	}
	return json.Unmarshal(col, dest)
}
