package db

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"sitelabor/internal/platform/config"
	"sitelabor/internal/platform/logging"
)

// AdminSeeder creates the bootstrap admin account when it is missing.
type AdminSeeder interface {
	EnsureAdmin(ctx context.Context, username, email, password string) error
}

// Seed provisions the bootstrap admin from cfg. It is a no-op without a
// configured email or password, and safe to run on every start.
func Seed(ctx context.Context, seeder AdminSeeder, cfg config.Config) error {
	if strings.TrimSpace(cfg.SeedAdminEmail) == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		logging.Get().WithField("module", "seed").Info("no seed admin configured, skipping")
		return nil
	}
	if err := seeder.EnsureAdmin(ctx, cfg.SeedAdminUsername, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	logging.Get().WithFields(logrus.Fields{"module": "seed", "username": cfg.SeedAdminUsername}).Info("seed admin ensured")
	return nil
}
