package settings

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

func ReadConfig(jsonStr string) (*Settings, error) {
	viper.SetConfigName("settings")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvPrefix("blockpad")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if jsonStr != "" {
		if err := viper.ReadConfig(strings.NewReader(jsonStr)); err != nil {
			return nil, err
		}
	} else {
		if err := viper.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, err
			}
		}
	}

	viper.SetDefault(IP, "0.0.0.0")
	viper.SetDefault(Port, "9002")
	viper.SetDefault(Loglevel, "INFO")

	viper.SetDefault(DBType, SQLITE)
	viper.SetDefault(DBSettingsHost, nil)
	viper.SetDefault(DBSettingsUser, nil)
	viper.SetDefault(DBSettingsPassword, nil)
	viper.SetDefault(DBSettingsDatabase, nil)
	viper.SetDefault(DBSettingsPort, nil)
	viper.SetDefault(DBSettingsFilename, "var/blockpad.db")

	viper.SetDefault(DefaultEol, "\n")
	viper.SetDefault(ImportMaxFileSize, 50*1024*1024)

	dbTypeToUse, err := ParseDBType(viper.GetString(DBType))
	if err != nil {
		return nil, err
	}

	eol := viper.GetString(DefaultEol)
	if eol != "\n" && eol != "\r\n" {
		return nil, errors.New("defaultEol must be \\n or \\r\\n")
	}

	s := &Settings{
		IP:       viper.GetString(IP),
		Port:     viper.GetString(Port),
		LogLevel: viper.GetString(Loglevel),
		DBType:   dbTypeToUse,
		DBSettings: &DBSettings{
			Host:     viper.GetString(DBSettingsHost),
			Port:     viper.GetString(DBSettingsPort),
			Database: viper.GetString(DBSettingsDatabase),
			User:     viper.GetString(DBSettingsUser),
			Password: viper.GetString(DBSettingsPassword),
			Filename: viper.GetString(DBSettingsFilename),
		},
		DefaultEol:        eol,
		ImportMaxFileSize: viper.GetInt64(ImportMaxFileSize),
	}

	return s, nil
}
