// File: config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_ClampsOutOfRangeFields(t *testing.T) {
	cfg := Default()
	cfg.MinPlayersNeeded = 1
	cfg.MaxPlayersAllowed = 0
	cfg.LobbyWaitSeconds = 0
	cfg.TicksPerGame = 5
	cfg.SecondsPerTick = 0

	cfg.Normalize()

	def := Default()
	assert.Equal(t, def.MinPlayersNeeded, cfg.MinPlayersNeeded)
	assert.Equal(t, cfg.MinPlayersNeeded, cfg.MaxPlayersAllowed)
	assert.Equal(t, def.LobbyWaitSeconds, cfg.LobbyWaitSeconds)
	assert.Equal(t, def.TicksPerGame, cfg.TicksPerGame)
	assert.Equal(t, def.SecondsPerTick, cfg.SecondsPerTick)
}

func TestNormalize_MaxBelowMinClampsUp(t *testing.T) {
	cfg := Default()
	cfg.MinPlayersNeeded = 3
	cfg.MaxPlayersAllowed = 2

	cfg.Normalize()

	assert.Equal(t, 3, cfg.MinPlayersNeeded)
	assert.Equal(t, 3, cfg.MaxPlayersAllowed)
}

func TestNormalize_AcceptsValidValues(t *testing.T) {
	cfg := Default()
	cfg.MinPlayersNeeded = 3
	cfg.MaxPlayersAllowed = 6
	cfg.LobbyWaitSeconds = 10
	cfg.TicksPerGame = 500
	cfg.SecondsPerTick = 2

	cfg.Normalize()

	assert.Equal(t, 3, cfg.MinPlayersNeeded)
	assert.Equal(t, 6, cfg.MaxPlayersAllowed)
	assert.Equal(t, 10, cfg.LobbyWaitSeconds)
	assert.Equal(t, 500, cfg.TicksPerGame)
	assert.Equal(t, 2, cfg.SecondsPerTick)
}

func TestNormalize_MismatchedCertKeyDropsBoth(t *testing.T) {
	cfg := Default()
	cfg.CertFile = "cert.pem"
	cfg.KeyFile = ""

	cfg.Normalize()

	assert.Empty(t, cfg.CertFile)
	assert.Empty(t, cfg.KeyFile)
	assert.False(t, cfg.UseHTTPS)
}

func TestNormalize_MatchedCertKeyEnablesHTTPS(t *testing.T) {
	cfg := Default()
	cfg.CertFile = "cert.pem"
	cfg.KeyFile = "key.pem"

	cfg.Normalize()

	assert.True(t, cfg.UseHTTPS)
}

func TestFastMatchConfig_TunedForTests(t *testing.T) {
	cfg := FastMatchConfig()
	assert.Equal(t, 2, cfg.MinPlayersNeeded)
	assert.Equal(t, 4, cfg.MaxPlayersAllowed)
	assert.Equal(t, 3, cfg.LobbyWaitSeconds)
	assert.Equal(t, 5, cfg.TicksPerGame)
	assert.Equal(t, 1, cfg.SecondsPerTick)
}
