package main

import (
	"github.com/ether/blockpad-go/lib/server"
	"github.com/ether/blockpad-go/lib/settings"
	"github.com/ether/blockpad-go/lib/utils"
)

func main() {
	settings.InitSettings()

	setupLogger := utils.SetupLogger(settings.Displayed.LogLevel)
	defer setupLogger.Sync()

	server.InitServer(setupLogger)
}
