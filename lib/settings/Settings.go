package settings

import "os"

// Config keys understood by ReadConfig. Values can come from
// settings.json or from BLOCKPAD_* environment variables.
const (
	IP                 = "ip"
	Port               = "port"
	Loglevel           = "loglevel"
	DBType             = "dbType"
	DBSettingsHost     = "dbSettings.host"
	DBSettingsPort     = "dbSettings.port"
	DBSettingsUser     = "dbSettings.user"
	DBSettingsPassword = "dbSettings.password"
	DBSettingsDatabase = "dbSettings.database"
	DBSettingsFilename = "dbSettings.filename"
	DefaultEol         = "defaultEol"
	ImportMaxFileSize  = "importMaxFileSize"
)

type DBSettings struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	Filename string
}

type Settings struct {
	IP   string
	Port string

	LogLevel string

	DBType     IDBType
	DBSettings *DBSettings

	// DefaultEol is used when a load request does not name one.
	DefaultEol string

	ImportMaxFileSize int64
}

var Displayed Settings

// InitSettings loads settings.json from the working directory, falling
// back to defaults, and publishes the result as Displayed. It runs before
// the logger exists, so the only failure report is a plain one.
func InitSettings() {
	jsonStr := ""
	if raw, err := os.ReadFile("settings.json"); err == nil {
		jsonStr = string(raw)
	}

	setting, err := ReadConfig(jsonStr)
	if err != nil {
		println("Error reading settings. Default settings will be used.")
		setting, _ = ReadConfig("")
	}
	Displayed = *setting
}
