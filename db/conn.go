// Package db opens the configured database and migrates the schema
package db

import (
	"fmt"
	"os"

	"userhub/account-api/model"
	"userhub/account-api/util"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	dsn := viper.GetString("db.dsn")

	switch viper.GetString("db.driver") {
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(dsn); err != nil {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", dsn)
			}
		}

		dialector = sqlite.Open(dsn)
	}

	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the account store relies on
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(model.User{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
