package tags

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ether/blockpad-go/lib"
	apiErrors "github.com/ether/blockpad-go/lib/api/errors"
	apiUtils "github.com/ether/blockpad-go/lib/api/utils"
)

// CreateTagRequest bookmarks a block's current state under a name.
type CreateTagRequest struct {
	BlockID string `json:"blockID" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

// TagIDResponse carries the id of a created tag.
type TagIDResponse struct {
	TagID string `json:"tagID"`
}

// TextResponse carries tagged text.
type TextResponse struct {
	Text string `json:"text"`
}

func CreateTag(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var request CreateTagRequest
		if err := c.BodyParser(&request); err != nil {
			return c.Status(400).JSON(apiErrors.InvalidRequestError)
		}
		if err := initStore.Validator.Struct(request); err != nil {
			return c.Status(422).JSON(apiErrors.ValidationError)
		}

		tagId, err := initStore.BlockManager.CreateTag(request.BlockID, request.Name)
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(TagIDResponse{TagID: tagId})
	}
}

func LoadTag(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		text, err := initStore.BlockManager.LoadTag(c.Params("tagId"))
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(TextResponse{Text: text})
	}
}

func GetTextForVersion(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		text, err := initStore.BlockManager.GetTextForVersion(c.Params("tagId"))
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(TextResponse{Text: text})
	}
}

func Init(initStore *lib.InitStore) {
	initStore.C.Post("/api/tags", CreateTag(initStore))
	initStore.C.Post("/api/tags/:tagId/load", LoadTag(initStore))
	initStore.C.Get("/api/tags/:tagId/text", GetTextForVersion(initStore))
}
