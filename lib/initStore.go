package lib

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ether/blockpad-go/lib/block"
	"github.com/ether/blockpad-go/lib/db"
	"github.com/ether/blockpad-go/lib/settings"
	"github.com/ether/blockpad-go/lib/ws"
)

type InitStore struct {
	C                 *fiber.App
	RetrievedSettings *settings.Settings
	Store             db.DataStore
	BlockManager      *block.Manager
	Notifier          *ws.Notifier
	Validator         *validator.Validate
	Logger            *zap.SugaredLogger
}
