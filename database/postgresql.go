package database

import (
	"context"
	"time"

	"MediCore/logging"
	"MediCore/models"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the database connection, configures the pool, migrates the
// schema and seeds roles and permissions.
func InitDB(ctx context.Context, dsn string, development bool) (*gorm.DB, error) {
	logMode := logger.Silent
	if development {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: false,
		PrepareStmt:                              true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}
	if err := testDatabaseConnection(ctx, db); err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	if err := seedInitialData(db); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info().Msg("database initialized")
	return db, nil
}

func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	sqlDB.SetMaxOpenConns(40)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	return nil
}

func testDatabaseConnection(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}
	return nil
}

func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.User{},
		&models.Doctor{},
		&models.Patient{},
		&models.Appointment{},
		&models.Prescription{},
	)
}

func seedInitialData(db *gorm.DB) error {
	if err := models.SeedRoles(db); err != nil {
		return errors.Wrap(err, "failed to seed roles")
	}
	if err := models.SeedPermissions(db); err != nil {
		return errors.Wrap(err, "failed to seed permissions")
	}
	if err := models.SeedRolePermissions(db); err != nil {
		return errors.Wrap(err, "failed to seed role permissions")
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	return sqlDB.Close()
}
