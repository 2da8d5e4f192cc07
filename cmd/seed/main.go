package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mhmd-mcp/backend/internal/config"
	"mhmd-mcp/backend/internal/logging"
	"mhmd-mcp/backend/internal/repository"
	"mhmd-mcp/backend/pkg/models"
)

var (
	configPath string
	name       string
	email      string
	preference string
)

func main() {
	root := &cobra.Command{
		Use:   "mhmd-seed",
		Short: "Seed the profile store with an initial record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.Flags().StringVar(&name, "name", "Test User", "profile name")
	root.Flags().StringVar(&email, "email", "", "profile email (random when empty)")
	root.Flags().StringVar(&preference, "preference", string(models.PreferenceOptOut), "MHMD preference, OPT_IN or OPT_OUT")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.Logging)
	defer logger.Sync()

	profile := &models.UserProfile{
		Name:       name,
		Email:      email,
		Preference: models.MHMDPreference(preference),
	}
	if !profile.Preference.Valid() {
		return fmt.Errorf("invalid preference %q", preference)
	}
	if profile.Email == "" {
		profile.Email = fmt.Sprintf("testuser_%s@example.com", uuid.New().String()[:6])
	}

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.PutProfile(ctx, profile); err != nil {
		return fmt.Errorf("seeding profile: %w", err)
	}

	logger.Info("profile seeded",
		zap.String("backend", cfg.Store.Backend),
		zap.String("name", profile.Name),
		zap.String("email", profile.Email),
		zap.String("preference", string(profile.Preference)),
	)
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.ProfileStore, func(), error) {
	if cfg.Store.Backend == "postgres" {
		connStr := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Store.DB.Host, cfg.Store.DB.Port, cfg.Store.DB.User,
			cfg.Store.DB.Password, cfg.Store.DB.Name, cfg.Store.DB.SSLMode,
		)
		pool, err := pgxpool.New(ctx, connStr)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		store := repository.NewPostgresProfileStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensuring schema: %w", err)
		}
		return store, pool.Close, nil
	}

	store, err := repository.NewJSONProfileStore(cfg.Store.JSONPath)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}
