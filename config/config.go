// File: config/config.go
package config

import (
	"fmt"
	"time"
)

// Config holds every tunable the session server reads at startup.
type Config struct {
	Host     string
	Port     int
	UseHTTPS bool
	KeyFile  string
	CertFile string

	JWTSecret string
	LuaFile   string

	MinPlayersNeeded  int
	MaxPlayersAllowed int
	LobbyWaitSeconds  int
	TicksPerGame      int
	SecondsPerTick    int

	Debug bool
}

// Default returns the out-of-the-box configuration. Flags and environment
// variables are layered on top of this by NewCommand.
func Default() Config {
	return Config{
		Host:     "0.0.0.0",
		Port:     8080,
		UseHTTPS: false,

		LuaFile: "game.lua",

		MinPlayersNeeded:  2,
		MaxPlayersAllowed: 4,
		LobbyWaitSeconds:  30,
		TicksPerGame:      300,
		SecondsPerTick:    1,
	}
}

// FastMatchConfig is a Config tuned for quick-running tests, mirroring the
// scenario literals of the end-to-end test matrix.
func FastMatchConfig() Config {
	cfg := Default()
	cfg.MinPlayersNeeded = 2
	cfg.MaxPlayersAllowed = 4
	cfg.LobbyWaitSeconds = 3
	cfg.TicksPerGame = 5
	cfg.SecondsPerTick = 1
	return cfg
}

// LobbyTickPeriod is the wall-clock period of the lobby countdown ticker.
func (c Config) LobbyTickPeriod() time.Duration {
	return time.Second
}

// TickPeriod is the wall-clock period of the engine driver's tick loop.
func (c Config) TickPeriod() time.Duration {
	return time.Duration(c.SecondsPerTick) * time.Second
}

// clampWithWarning returns value if it already satisfies ok, otherwise logs a
// warning and returns fallback. Mirrors the warn-then-default behavior the
// original configuration loader used for every numeric field.
func clampWithWarning(field string, value, fallback int, ok func(int) bool) int {
	if ok(value) {
		return value
	}
	fmt.Printf("WARN: config: %s=%d is out of range, falling back to %d\n", field, value, fallback)
	return fallback
}

// Normalize clamps every field to its documented valid range, logging a
// warning for each field that had to be corrected. Call this once after all
// sources (defaults, .env, flags) have been merged.
func (c *Config) Normalize() {
	def := Default()

	c.MinPlayersNeeded = clampWithWarning("MIN_PLAYERS_NEEDED", c.MinPlayersNeeded, def.MinPlayersNeeded, func(v int) bool { return v >= 2 })

	if c.MaxPlayersAllowed < c.MinPlayersNeeded {
		fmt.Printf("WARN: config: MAX_PLAYERS_ALLOWED=%d is below MIN_PLAYERS_NEEDED=%d, clamping up\n", c.MaxPlayersAllowed, c.MinPlayersNeeded)
		c.MaxPlayersAllowed = c.MinPlayersNeeded
	}

	c.LobbyWaitSeconds = clampWithWarning("LOBBY_WAIT_SECONDS", c.LobbyWaitSeconds, def.LobbyWaitSeconds, func(v int) bool { return v >= 1 })
	c.TicksPerGame = clampWithWarning("TICKS_PER_GAME", c.TicksPerGame, def.TicksPerGame, func(v int) bool { return v >= 30 })
	c.SecondsPerTick = clampWithWarning("SECONDS_PER_TICK", c.SecondsPerTick, def.SecondsPerTick, func(v int) bool { return v >= 1 })

	if (c.CertFile == "") != (c.KeyFile == "") {
		fmt.Printf("WARN: config: CERT_FILE and KEY_FILE must be set together, ignoring both\n")
		c.CertFile, c.KeyFile = "", ""
	}
	if c.CertFile != "" && c.KeyFile != "" {
		c.UseHTTPS = true
	}
}
