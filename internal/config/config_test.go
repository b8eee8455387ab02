package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "dev", cfg.AuthMode)
	assert.Equal(t, "occurrence-events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.SkipTodayOnly)
	assert.False(t, cfg.MissedSweepOnRead)
	assert.Equal(t, 7, cfg.SweepLookbackDays)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_MODE", " JWT ")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("MISSED_SWEEP_ON_READ", "true")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "jwt", cfg.AuthMode)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.MissedSweepOnRead)
}

func TestValidate(t *testing.T) {
	cases := map[string]Config{
		"jwt without secret": {AuthMode: "jwt"},
		"remote without url": {AuthMode: "remote"},
		"unknown mode":       {AuthMode: "ldap"},
		"negative lookback":  {AuthMode: "dev", SweepLookbackDays: -1},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, (&Config{AuthMode: "remote", AuthRemoteURL: "http://idp"}).Validate())
}
