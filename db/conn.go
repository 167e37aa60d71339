// Package db contains the database connection setup
package db

import (
	"errors"
	"fmt"
	"os"

	"spoileralert/spoiler-api/internal/model"
	"spoileralert/spoiler-api/pkg/util"

	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dial gorm.Dialector

	switch viper.GetString("db.driver") {
	case "mysql":
		dial = mysql.Open(viper.GetString("db.dsn"))
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() && fileMissing(viper.GetString("db.dsn")) {
			return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it")
		}

		dial = sqlite.Open(viper.GetString("db.dsn"))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", viper.GetString("db.driver"))
	}

	db, err := gorm.Open(dial, &gorm.Config{
		// Lets callers match gorm.ErrDuplicatedKey instead of driver errors
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying connection pool, %w", err)
	}

	// The hosting provider kills idle connections after 600s
	sqlDB.SetConnMaxLifetime(viper.GetDuration("db.pool_recycle"))

	err = db.AutoMigrate(model.User{}, model.SentSpoiler{}, model.EmailJob{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}

// os.Stat wraps its errors in *PathError, so the check has to go through
// errors.Is rather than compare sentinels directly.
func fileMissing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}
