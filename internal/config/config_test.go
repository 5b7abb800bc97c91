package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 40, cfg.Apply.ScoreThreshold)
				assert.Equal(t, 2, cfg.Apply.MaxAttempts)
				assert.Equal(t, 45*time.Second, cfg.Apply.RateLimit)
				assert.True(t, cfg.Apply.QuickApplyOnly)
				assert.Equal(t, "oldest", cfg.Apply.Order)
				assert.Equal(t, "aws", cfg.Profile.DefaultTag)
				assert.Equal(t, 90000, cfg.Profile.SalaryFloor)
				assert.True(t, cfg.Profile.WorkRights)
			}
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://override:5432/other")
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "postgres://override:5432/other", cfg.DatabaseURL)
	assert.Equal(t, "gsk_test", cfg.GroqAPIKey)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, 40, cfg.Apply.ScoreThreshold)
	assert.Equal(t, 3, cfg.Apply.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Apply.RateLimit)
	assert.Equal(t, 20*time.Second, cfg.Apply.FieldTimeout)
	assert.Equal(t, 15*time.Second, cfg.Apply.PageTimeout)
	assert.Equal(t, 8, cfg.Apply.MaxPages)
	assert.Equal(t, 30*time.Minute, cfg.Apply.RecoverAfter)
	assert.Equal(t, "oldest", cfg.Apply.Order)
	assert.Equal(t, "Immediately", cfg.Profile.NoticePeriod)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{DatabaseURL: "postgres://x"}
		c.Profile.ResumeText = map[string]string{"mixed": "resume"}
		c.applyDefaults()
		return c
	}

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("missing database url", func(t *testing.T) {
		c := base()
		c.DatabaseURL = ""
		assert.ErrorContains(t, c.validate(), "DATABASE_URL")
	})

	t.Run("bad order", func(t *testing.T) {
		c := base()
		c.Apply.Order = "random"
		assert.ErrorContains(t, c.validate(), "apply.order")
	})

	t.Run("no resume variants", func(t *testing.T) {
		c := base()
		c.Profile.ResumeText = nil
		assert.ErrorContains(t, c.validate(), "resume_text")
	})

	t.Run("default tag missing variant", func(t *testing.T) {
		c := base()
		c.Profile.DefaultTag = "aws"
		assert.ErrorContains(t, c.validate(), "default tag")
	})
}
