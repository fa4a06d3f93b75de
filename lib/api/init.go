package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ether/blockpad-go/lib"
	"github.com/ether/blockpad-go/lib/api/blocks"
	"github.com/ether/blockpad-go/lib/api/files"
	"github.com/ether/blockpad-go/lib/api/tags"
)

func InitAPI(initStore *lib.InitStore) {
	files.Init(initStore)
	blocks.Init(initStore)
	tags.Init(initStore)

	initStore.C.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
}
