package Models

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database for the given driver name (sqlite, mysql or
// postgres). A nil writer silences gorm's own logging.
func Connect(driver, dsn string, writer logger.Writer) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if writer != nil {
		gormLogger = logger.New(writer, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	connection, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "" || driver == "sqlite" {
		// sqlite serializes writers; one connection avoids "database is locked".
		sqlDB, err := connection.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return connection, nil
}

// AutoMigrate creates or updates every table, parents first.
func AutoMigrate(db *gorm.DB) error {
	// 1. Base tables without foreign keys
	if err := db.AutoMigrate(
		&User{},
		&RoleConfig{},
		&Sequence{},
		&ProjectTemplate{},
	); err != nil {
		return fmt.Errorf("failed to migrate base tables: %w", err)
	}

	// 2. Projects and what hangs off them
	if err := db.AutoMigrate(
		&Project{},
		&Task{},
		&Subtask{},
		&Dependency{},
		&Comment{},
	); err != nil {
		return fmt.Errorf("failed to migrate project tables: %w", err)
	}

	// 3. Per-user records
	if err := db.AutoMigrate(
		&Leave{},
		&AuditLog{},
		&Notification{},
		&DeviceToken{},
	); err != nil {
		return fmt.Errorf("failed to migrate user tables: %w", err)
	}
	return nil
}
