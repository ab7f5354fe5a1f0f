package database

import (
	"fmt"

	"github.com/pawanbhattarai/PMS/internal/config"
	"github.com/pawanbhattarai/PMS/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects with the configured driver and attaches the tracing plugin.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("attach otelgorm: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table. On Postgres it also installs the
// exclusion constraint that makes the database itself refuse a second
// overlapping non-cancelled stay on the same room.
func Migrate(db *gorm.DB, log logrus.FieldLogger) error {
	err := db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.RoomType{},
		&models.Room{},
		&models.Guest{},
		&models.Reservation{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.RestaurantOrder{},
		&models.InventoryCategory{},
		&models.InventoryItem{},
		&models.Invoice{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		log.Info("non-postgres database, reservation overlap is enforced by the application only")
		return nil
	}
	for _, stmt := range postgresConstraints {
		if err := db.Exec(stmt.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt.name, err)
		}
		log.WithField("constraint", stmt.name).Debug("constraint ensured")
	}
	return nil
}

var postgresConstraints = []struct {
	name string
	sql  string
}{
	{"btree_gist", `CREATE EXTENSION IF NOT EXISTS btree_gist`},
	{"reservations_dates_check", `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_dates_check') THEN
		ALTER TABLE reservations
			ADD CONSTRAINT reservations_dates_check CHECK (check_out_date > check_in_date);
	END IF;
END $$`},
	{"reservations_room_no_overlap", `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_room_no_overlap') THEN
		ALTER TABLE reservations
			ADD CONSTRAINT reservations_room_no_overlap
			EXCLUDE USING gist (
				room_id WITH =,
				daterange(check_in_date, check_out_date, '[)') WITH &&
			) WHERE (status <> 'cancelled');
	END IF;
END $$`},
}
