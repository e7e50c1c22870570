// File: cmd/gentoken/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lguibr/arenaserver/authtoken"
)

func main() {
	root := &cobra.Command{
		Use:           "gentoken",
		Short:         "Mint a player or viewer bearer token for the session server.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newPlayerCmd(), newViewerCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gentoken:", err)
		os.Exit(1)
	}
}

func newPlayerCmd() *cobra.Command {
	var (
		idFlag    string
		name      string
		duration  time.Duration
		jwtSecret string
	)

	cmd := &cobra.Command{
		Use:   "player",
		Short: "Generate a player JWT",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, generated, err := resolveID(idFlag)
			if err != nil {
				return err
			}
			secret := resolveSecret(jwtSecret)
			if secret == "" {
				return fmt.Errorf("--jwt-secret (or ARENA_JWT_SECRET) is required")
			}

			token, err := authtoken.Mint([]byte(secret), id, authtoken.AudiencePlayer, name, duration)
			if err != nil {
				return fmt.Errorf("failed to encode JWT: %w", err)
			}
			if generated {
				fmt.Fprintf(os.Stderr, "Token UUID: %s\n", id)
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&idFlag, "id", "i", "", "player UUID (random if omitted)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "player name or alias")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 365*24*time.Hour, "validity duration")
	cmd.Flags().StringVarP(&jwtSecret, "jwt-secret", "s", "", "HMAC secret (env: ARENA_JWT_SECRET)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newViewerCmd() *cobra.Command {
	var (
		idFlag    string
		duration  time.Duration
		jwtSecret string
	)

	cmd := &cobra.Command{
		Use:   "viewer",
		Short: "Generate a viewer JWT",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, generated, err := resolveID(idFlag)
			if err != nil {
				return err
			}
			secret := resolveSecret(jwtSecret)
			if secret == "" {
				return fmt.Errorf("--jwt-secret (or ARENA_JWT_SECRET) is required")
			}

			token, err := authtoken.Mint([]byte(secret), id, authtoken.AudienceViewer, "", duration)
			if err != nil {
				return fmt.Errorf("failed to encode JWT: %w", err)
			}
			if generated {
				fmt.Fprintf(os.Stderr, "Token UUID: %s\n", id)
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&idFlag, "id", "i", "", "viewer UUID (random if omitted)")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 365*24*time.Hour, "validity duration")
	cmd.Flags().StringVarP(&jwtSecret, "jwt-secret", "s", "", "HMAC secret (env: ARENA_JWT_SECRET)")

	return cmd
}

func resolveID(raw string) (uuid.UUID, bool, error) {
	if raw == "" {
		return uuid.New(), true, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, false, fmt.Errorf("invalid --id: %w", err)
	}
	return id, false, nil
}

func resolveSecret(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("ARENA_JWT_SECRET")
}
