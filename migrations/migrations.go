// Package migrations brings the database to the current schema version.
// Each version runs once, in its own transaction, and is recorded in
// schema_migrations.
package migrations

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/models"
)

// Migration is one schema version.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// All lists every schema version in order.
var All = []Migration{
	{Version: 1, Name: "baseline", Up: baseline},
	{Version: 2, Name: "legacy_backfill", Up: legacyBackfill},
}

// Latest is the version a fully migrated database reports.
func Latest() int {
	return All[len(All)-1].Version
}

// Migrate applies every pending version.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&models.SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for _, m := range All {
		if applied[m.Version] {
			continue
		}
		start := time.Now()
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&models.SchemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			logger.Error(ctx, "migration failed", "version", m.Version, "name", m.Name, "error", err)
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		logger.Info(ctx, "migration applied", "version", m.Version, "name", m.Name, "duration", time.Since(start).String())
	}
	return nil
}

// CurrentVersion returns the highest applied version, or 0.
func CurrentVersion(db *gorm.DB) (int, error) {
	if !db.Migrator().HasTable(&models.SchemaMigration{}) {
		return 0, nil
	}
	var version int
	err := db.Model(&models.SchemaMigration{}).Select("COALESCE(MAX(version), 0)").Scan(&version).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func appliedVersions(db *gorm.DB) (map[int]bool, error) {
	var versions []int
	if err := db.Model(&models.SchemaMigration{}).Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}
