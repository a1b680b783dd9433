package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("INVOICE_TAX_RATE", "")
	t.Setenv("ORDER_AUTO_COMPLETE", "")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "0.18", cfg.Business.TaxRate.String())
	assert.False(t, cfg.Business.AutoCompleteOrders)
	assert.Equal(t, 10, cfg.Business.LowStockThreshold)
	assert.Equal(t, 5, cfg.Business.AlertLimit)
	assert.Equal(t, 10, cfg.Business.MessageLimit)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ORDER_AUTO_COMPLETE", "true")
	t.Setenv("INVOICE_TAX_RATE", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Business.AutoCompleteOrders)
	assert.Equal(t, "0.18", cfg.Business.TaxRate.String())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestGetBool_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_FLAG", "maybe")
	assert.True(t, getBool("SOME_FLAG", true))
}

func TestGetInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("JWT_TTL_MINUTES", "90m")

	cfg := Load()

	assert.Equal(t, 1440*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 7, getInt("UNSET_NUMBER_FOR_TEST", 7))
}

func TestValidate_JWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		wantErr bool
	}{
		{"production default secret", "production", DefaultJWTSecret, true},
		{"production empty secret", "production", "", true},
		{"production custom secret", "production", "s3cr3t-from-vault", false},
		{"development default secret", "development", DefaultJWTSecret, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server: ServerConfig{Env: tt.env},
				Auth:   AuthConfig{JWTSecret: tt.secret},
			}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	assert.Error(t, Load().Validate())

	t.Setenv("JWT_SECRET", "a-real-secret")
	assert.NoError(t, Load().Validate())
}
