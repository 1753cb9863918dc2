package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	values := Config{}

	applyDefaults(&values, defaultConfig)

	assert.Equal(t, ":8080", values.RunAddr)
	assert.Equal(t, "info", values.LogLevel)
	assert.Equal(t, "https://api.themoviedb.org/3", values.CatalogBaseURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500", values.CatalogImageBaseURL)
	assert.Equal(t, 10*time.Second, values.DBConnectionTimeout)
	assert.Equal(t, "reelrank_session", values.AuthCookieName)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("API_KEY", "tmdb-test-key")

	values := Config{}
	applyDefaults(&values, defaultConfig)

	var valuesFromEnv Config
	err := env.Parse(&valuesFromEnv)
	require.NoError(t, err)
	mergeNonEmpty(&values, &valuesFromEnv)

	assert.Equal(t, ":9090", values.RunAddr)
	assert.Equal(t, "debug", values.LogLevel)
	assert.Equal(t, "tmdb-test-key", values.CatalogAPIKey)
	assert.Equal(t, "https://api.themoviedb.org/3", values.CatalogBaseURL)
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	values := Config{}
	applyDefaults(&values, defaultConfig)
	values.LogLevel = "loud"

	assert.Error(t, values.validate())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	values := Config{}
	applyDefaults(&values, defaultConfig)

	require.NoError(t, values.validate())
}
