package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTOSAVE_DELAY", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("S3_PATH_STYLE", "")
	t.Setenv("ENV", "")

	cfg := Load()
	assert.Equal(t, 2000*time.Millisecond, cfg.AutosaveDelay)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "0.8", cfg.RegulatedShare)
	assert.True(t, cfg.S3PathStyle)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTOSAVE_DELAY", "500")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("S3_PATH_STYLE", "false")
	t.Setenv("ENV", "production")

	cfg := Load()
	assert.Equal(t, 500*time.Millisecond, cfg.AutosaveDelay)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.S3PathStyle)
	assert.True(t, cfg.IsProduction())
}
