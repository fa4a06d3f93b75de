package utils

import (
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/ether/blockpad-go/lib/db"
	"github.com/ether/blockpad-go/lib/settings"
)

func GetDB(retrievedSettings settings.Settings, setupLogger *zap.SugaredLogger) (db.DataStore, error) {
	if retrievedSettings.DBType == settings.SQLITE {
		setupLogger.Infof("Using SQLite database at %s", retrievedSettings.DBSettings.Filename)
		return db.NewSQLiteDB(retrievedSettings.DBSettings.Filename)
	} else if retrievedSettings.DBType == settings.MEMORY {
		setupLogger.Info("Using in-memory database (data will be lost on restart)")
		return db.NewMemoryDataStore(), nil
	} else if retrievedSettings.DBType == settings.POSTGRES {
		setupLogger.Infof("Using Postgres database at %s with database %s", retrievedSettings.DBSettings.Host, retrievedSettings.DBSettings.Database)

		port, err := strconv.Atoi(retrievedSettings.DBSettings.Port)
		if err != nil {
			return nil, err
		}

		return db.NewPostgresDB(db.PostgresOptions{
			Username: retrievedSettings.DBSettings.User,
			Password: retrievedSettings.DBSettings.Password,
			Host:     retrievedSettings.DBSettings.Host,
			Database: retrievedSettings.DBSettings.Database,
			Port:     port,
		})
	}
	return nil, errors.New("unsupported database type")
}
