package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"MONGODB_URI", "STORE_DRIVER", "HTTP_PORT", "GROQ_API_KEY", "OPENROUTER_API_KEY", "APP_MODE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, time.Hour, cfg.SessionCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 10, cfg.ChatContextWindow)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Groq.DefaultModel)
	assert.Equal(t, "Cleuly", cfg.OpenRouter.Headers["X-Title"])
	assert.False(t, cfg.Mock())
}

func TestLoadSelectsMongoWhenURISet(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "eighty")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("HTTP_PORT", "")
	t.Setenv("STORE_DRIVER", "postgres")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGODB_URI", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PROMPT_PRESET", "experimental")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadClassicPreset(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("PROMPT_PRESET", "Classic")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "classic", cfg.PromptPreset)
}

func TestLoadMockMode(t *testing.T) {
	t.Setenv("APP_MODE", "mock")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Mock())
}
