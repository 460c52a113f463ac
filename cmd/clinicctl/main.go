package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	"github.com/ayurcare/clinic-api/internal/config"
	"github.com/ayurcare/clinic-api/internal/repository/postgres"
	authService "github.com/ayurcare/clinic-api/internal/service/auth"
	"github.com/ayurcare/clinic-api/migrations"
	"github.com/ayurcare/clinic-api/pkg/auth"
	"github.com/ayurcare/clinic-api/pkg/logger"
	"github.com/ayurcare/clinic-api/pkg/security"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "clinicctl",
		Short:        "Operational tasks for the clinic API",
		SilenceUsage: true,
	}
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(bootstrapAdminCmd())
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *migrate.Migrate) error {
				if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migrate up: %w", err)
				}
				cmd.Println("migrations complete")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *migrate.Migrate) error {
				if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migrate down: %w", err)
				}
				cmd.Println("rolled back one migration")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark the schema as VERSION without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withMigrator(cmd.Context(), func(m *migrate.Migrate) error {
				if err := m.Force(version); err != nil {
					return fmt.Errorf("force version: %w", err)
				}
				cmd.Printf("forced version to %d\n", version)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *migrate.Migrate) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					cmd.Println("no migrations applied")
					return nil
				}
				if err != nil {
					return err
				}
				cmd.Printf("version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

func bootstrapAdminCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create or promote the admin account",
		Long: "Creates the admin account with the password from ADMIN_BOOTSTRAP_PASSWORD, " +
			"or promotes an existing account with the same email.",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("--email is required")
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

			password := cfg.Secrets.AdminBootstrapPassword
			if len(password) < security.MinPasswordLen {
				return fmt.Errorf("ADMIN_BOOTSTRAP_PASSWORD must be at least %d characters", security.MinPasswordLen)
			}

			ctx := cmd.Context()
			db, err := postgres.NewDB(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			repos := postgres.NewRepositories(db)
			svc := authService.NewService(
				repos.Users,
				auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry()),
				security.NewBcryptHasher(cfg.Auth.BcryptCost),
				nil,
				nil,
				nil,
				validator.New(validator.Rules{PhoneRegion: cfg.Booking.PhoneRegion}),
				authService.Config{},
			)

			user, created, err := svc.BootstrapAdmin(ctx, email, name, password)
			if err != nil {
				return err
			}
			if created {
				cmd.Printf("created admin %s (%s)\n", user.Email, user.ID)
			} else {
				cmd.Printf("%s is an admin (%s)\n", user.Email, user.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name")
	return cmd
}

func withMigrator(ctx context.Context, fn func(*migrate.Migrate) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	dbDriver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("db driver: %w", err)
	}
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	return fn(m)
}
