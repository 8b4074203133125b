package cache

import "fmt"

type EntityType string

const (
	EntityRole     EntityType = "role"
	EntityRegistry EntityType = "registry"
)

type KeyType string

const (
	KeyID  KeyType = "id"
	KeyICO KeyType = "ico"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}
