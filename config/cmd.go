// File: config/cmd.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewCommand builds the root cobra command. Flags are bound to bare
// environment variables (no prefix) and to an optional .env file via viper's
// native "env" config type, then merged into cfg before run is invoked.
// Precedence, lowest to highest: built-in defaults < .env file < environment
// variables < explicit command-line flags.
func NewCommand(cfg *Config, envFile string, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			fmt.Printf("WARN: config: could not read env file %q: %v\n", envFile, err)
		}
	}

	cmd := &cobra.Command{
		Use:           "arenaserver",
		Short:         "Real-time session server that coordinates lobbies and scripted matches.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Normalize()
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.Host, "host", cfg.Host, "address to bind to (env: HOST)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "port to listen on (env: PORT)")
	fs.BoolVar(&cfg.UseHTTPS, "use-https", cfg.UseHTTPS, "terminate TLS using cert-file/key-file (env: USE_HTTPS)")
	fs.StringVar(&cfg.KeyFile, "key-file", cfg.KeyFile, "TLS private key path (env: KEY_FILE)")
	fs.StringVar(&cfg.CertFile, "cert-file", cfg.CertFile, "TLS certificate path (env: CERT_FILE)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "HMAC secret used to validate bearer tokens (env: JWT_SECRET)")
	fs.StringVar(&cfg.LuaFile, "lua-file", cfg.LuaFile, "path to the scripted engine's Lua source (env: LUA_FILE)")
	fs.IntVar(&cfg.MinPlayersNeeded, "min-players-needed", cfg.MinPlayersNeeded, "minimum registered players to start the lobby countdown (env: MIN_PLAYERS_NEEDED)")
	fs.IntVar(&cfg.MaxPlayersAllowed, "max-players-allowed", cfg.MaxPlayersAllowed, "maximum registered players accepted (env: MAX_PLAYERS_ALLOWED)")
	fs.IntVar(&cfg.LobbyWaitSeconds, "lobby-wait-seconds", cfg.LobbyWaitSeconds, "countdown length once minimum players are registered (env: LOBBY_WAIT_SECONDS)")
	fs.IntVar(&cfg.TicksPerGame, "ticks-per-game", cfg.TicksPerGame, "ticks before a match ends regardless of outcome (env: TICKS_PER_GAME)")
	fs.IntVar(&cfg.SecondsPerTick, "seconds-per-tick", cfg.SecondsPerTick, "wall-clock seconds between engine ticks (env: SECONDS_PER_TICK)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "include developerNotes in error frames (env: DEBUG)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		} else if key := strings.ReplaceAll(f.Name, "-", "_"); !f.Changed && v.IsSet(key) {
			// .env keys keep their underscores (MIN_PLAYERS_NEEDED -> min_players_needed).
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(key)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
