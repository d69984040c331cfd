package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		cfg := Load()

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, StoreMemory, cfg.StoreDriver)
		assert.Equal(t, 5*time.Second, cfg.StorageTimeout)
		assert.Equal(t, "Beer", cfg.Tab.QuickItemTitle)
		assert.Equal(t, "10", cfg.Tab.QuickItemPrice.String())
		assert.Equal(t, "Unknown", cfg.Tab.DefaultOperator)
	})

	t.Run("overrides", func(t *testing.T) {
		viper.Reset()
		viper.Set("store.driver", StoreRedis)
		viper.Set("store.timeout", "250ms")
		viper.Set("tab.quick_item_price", "4.50")
		cfg := Load()

		assert.Equal(t, StoreRedis, cfg.StoreDriver)
		assert.Equal(t, 250*time.Millisecond, cfg.StorageTimeout)
		assert.Equal(t, "4.5", cfg.Tab.QuickItemPrice.String())
	})

	t.Run("bad values fall back", func(t *testing.T) {
		viper.Reset()
		viper.Set("store.timeout", "-1s")
		viper.Set("tab.quick_item_price", "free")
		cfg := Load()

		assert.Equal(t, 5*time.Second, cfg.StorageTimeout)
		assert.Equal(t, "10", cfg.Tab.QuickItemPrice.String())
	})

	t.Run("environment", func(t *testing.T) {
		viper.Reset()
		t.Setenv("STORE_DRIVER", StorePostgres)
		_ = Init() // no .env in the test directory
		cfg := Load()

		assert.Equal(t, StorePostgres, cfg.StoreDriver)
	})
}
