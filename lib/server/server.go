package server

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ether/blockpad-go/lib"
	api2 "github.com/ether/blockpad-go/lib/api"
	"github.com/ether/blockpad-go/lib/block"
	settings2 "github.com/ether/blockpad-go/lib/settings"
	"github.com/ether/blockpad-go/lib/utils"
	"github.com/ether/blockpad-go/lib/ws"
)

func InitServer(setupLogger *zap.SugaredLogger) {
	var settings = settings2.Displayed
	validatorEvaluator := validator.New(validator.WithRequiredStructEnabled())

	setupLogger.Info("Starting Blockpad Go...")
	setupLogger.Info("Report bugs at https://github.com/ether/blockpad-go/issues")

	dataStore, err := utils.GetDB(settings, setupLogger)
	if err != nil {
		setupLogger.Fatal("Error connecting to database: " + err.Error())
		return
	}

	blockManager := block.NewManager(dataStore, setupLogger)
	if err := blockManager.Hydrate(); err != nil {
		setupLogger.Fatal("Error hydrating workspace: " + err.Error())
		return
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	globalHub := ws.NewHub(setupLogger)
	go globalHub.Run()

	api2.InitAPI(&lib.InitStore{
		C:                 app,
		RetrievedSettings: &settings,
		Store:             dataStore,
		BlockManager:      blockManager,
		Notifier:          ws.NewNotifier(globalHub),
		Validator:         validatorEvaluator,
		Logger:            setupLogger,
	})

	app.Get("/ws", func(c *fiber.Ctx) error {
		return adaptor.HTTPHandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ws.ServeWs(writer, request, globalHub, setupLogger)
		})(c)
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		setupLogger.Info("Shutting down...")
		if err := app.Shutdown(); err != nil {
			setupLogger.Errorf("error during shutdown: %s", err.Error())
		}
		if err := dataStore.Close(); err != nil {
			setupLogger.Errorf("error closing store: %s", err.Error())
		}
	}()

	setupLogger.Infof("Blockpad Go listening on %s:%s", settings.IP, settings.Port)
	if err := app.Listen(settings.IP + ":" + settings.Port); err != nil {
		setupLogger.Fatal("Error starting server: " + err.Error())
	}
}
