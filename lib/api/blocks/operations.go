package blocks

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ether/blockpad-go/lib"
	apiErrors "github.com/ether/blockpad-go/lib/api/errors"
	apiUtils "github.com/ether/blockpad-go/lib/api/utils"
	blockModels "github.com/ether/blockpad-go/lib/models/block"
)

// Block ids are hierarchical paths and may contain slashes, so every
// operation takes the id from the query string or the request body rather
// than from the route.

// CreateChildRequest asks for an INLINE child on a line range.
type CreateChildRequest struct {
	BlockID   string `json:"blockID" validate:"required"`
	StartLine int    `json:"startLine" validate:"min=1"`
	EndLine   int    `json:"endLine" validate:"min=1"`
}

// CreateChildResponse carries the new child id; null when the range
// overlapped a sibling.
type CreateChildResponse struct {
	BlockID *string `json:"blockID"`
}

// ChangeLinesRequest applies one multi-line edit through a block.
type ChangeLinesRequest struct {
	BlockID string                      `json:"blockID" validate:"required"`
	Change  blockModels.MultiLineChange `json:"change" validate:"required"`
}

// AffectedBlocksResponse reports the blocks touched by an edit.
type AffectedBlocksResponse struct {
	BlockIDs []string `json:"blockIDs"`
}

// ApplyIndexRequest snaps a block to a timeline position.
type ApplyIndexRequest struct {
	BlockID string `json:"blockID" validate:"required"`
	Index   int    `json:"index" validate:"min=0"`
}

// ApplyTimestampRequest moves a block cursor to an explicit timestamp.
type ApplyTimestampRequest struct {
	BlockID   string `json:"blockID" validate:"required"`
	Timestamp int64  `json:"timestamp" validate:"min=1"`
}

// LineEditRequest inserts or updates one line through a block.
type LineEditRequest struct {
	BlockID string `json:"blockID" validate:"required"`
	Line    int    `json:"line" validate:"min=1"`
	Content string `json:"content"`
}

// CopyRequest forks a block into a clone.
type CopyRequest struct {
	BlockID string `json:"blockID" validate:"required"`
}

// BlockIDResponse carries a block id.
type BlockIDResponse struct {
	BlockID string `json:"blockID"`
}

// TextResponse carries block text.
type TextResponse struct {
	Text string `json:"text"`
}

func GetBlockInfo(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := initStore.BlockManager.GetBlockInfo(c.Query("blockID"))
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(info)
	}
}

func GetChildrenInfo(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		infos, err := initStore.BlockManager.GetChildrenInfo(c.Query("blockID"))
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(infos)
	}
}

func GetText(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var clones []string
		if raw := c.Query("clones"); raw != "" {
			clones = strings.Split(raw, ",")
		}
		text, err := initStore.BlockManager.GetText(c.Query("blockID"), clones...)
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(TextResponse{Text: text})
	}
}

func CreateChild(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var request CreateChildRequest
		if err := c.BodyParser(&request); err != nil {
			return c.Status(400).JSON(apiErrors.InvalidRequestError)
		}
		if err := initStore.Validator.Struct(request); err != nil {
			return c.Status(422).JSON(apiErrors.ValidationError)
		}

		childId, err := initStore.BlockManager.CreateChild(request.BlockID, blockModels.Range{
			StartLine: request.StartLine,
			EndLine:   request.EndLine,
		})
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(CreateChildResponse{BlockID: childId})
	}
}

func DeleteBlock(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := initStore.BlockManager.DeleteBlock(c.Query("blockID")); err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.SendStatus(204)
	}
}

func ChangeLines(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var request ChangeLinesRequest
		if err := c.BodyParser(&request); err != nil {
			return c.Status(400).JSON(apiErrors.InvalidRequestError)
		}
		if err := initStore.Validator.Struct(request); err != nil {
			return c.Status(422).JSON(apiErrors.ValidationError)
		}

		affected, err := initStore.BlockManager.ChangeLines(request.BlockID, request.Change)
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		initStore.Notifier.BlocksChanged(affected)
		return c.JSON(AffectedBlocksResponse{BlockIDs: affected})
	}
}

func InsertLine(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var request LineEditRequest
		if err := c.BodyParser(&request); err != nil {
			return c.Status(400).JSON(apiErrors.InvalidRequestError)
		}
		if err := initStore.Validator.Struct(request); err != nil {
			return c.Status(422).JSON(apiErrors.ValidationError)
		}

		affected, err := initStore.BlockManager.InsertLineAt(request.BlockID, request.Line, request.Content)
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		initStore.Notifier.BlocksChanged(affected)
		return c.JSON(AffectedBlocksResponse{BlockIDs: affected})
	}
}

func UpdateLine(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var request LineEditRequest
		if err := c.BodyParser(&request); err != nil {
			return c.Status(400).JSON(apiErrors.InvalidRequestError)
		}
		if err := initStore.Validator.Struct(request); err != nil {
			return c.Status(422).JSON(apiErrors.ValidationError)
		}

		affected, err := initStore.BlockManager.UpdateLine(request.BlockID, request.Line, request.Content)
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		initStore.Notifier.BlocksChanged(affected)
		return c.JSON(AffectedBlocksResponse{BlockIDs: affected})
	}
}

func ApplyIndex(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var request ApplyIndexRequest
		if err := c.BodyParser(&request); err != nil {
			return c.Status(400).JSON(apiErrors.InvalidRequestError)
		}
		if err := initStore.Validator.Struct(request); err != nil {
			return c.Status(422).JSON(apiErrors.ValidationError)
		}

		if err := initStore.BlockManager.ApplyIndex(request.BlockID, request.Index); err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.SendStatus(204)
	}
}

func ApplyTimestamp(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var request ApplyTimestampRequest
		if err := c.BodyParser(&request); err != nil {
			return c.Status(400).JSON(apiErrors.InvalidRequestError)
		}
		if err := initStore.Validator.Struct(request); err != nil {
			return c.Status(422).JSON(apiErrors.ValidationError)
		}

		if err := initStore.BlockManager.ApplyTimestamp(request.BlockID, request.Timestamp); err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.SendStatus(204)
	}
}

func Copy(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var request CopyRequest
		if err := c.BodyParser(&request); err != nil {
			return c.Status(400).JSON(apiErrors.InvalidRequestError)
		}
		if err := initStore.Validator.Struct(request); err != nil {
			return c.Status(422).JSON(apiErrors.ValidationError)
		}

		cloneId, err := initStore.BlockManager.Copy(request.BlockID)
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(BlockIDResponse{BlockID: cloneId})
	}
}

func Init(initStore *lib.InitStore) {
	initStore.C.Get("/api/blocks/info", GetBlockInfo(initStore))
	initStore.C.Get("/api/blocks/children", GetChildrenInfo(initStore))
	initStore.C.Get("/api/blocks/text", GetText(initStore))
	initStore.C.Post("/api/blocks/children", CreateChild(initStore))
	initStore.C.Delete("/api/blocks", DeleteBlock(initStore))
	initStore.C.Post("/api/blocks/changes", ChangeLines(initStore))
	initStore.C.Post("/api/blocks/insertLine", InsertLine(initStore))
	initStore.C.Post("/api/blocks/updateLine", UpdateLine(initStore))
	initStore.C.Post("/api/blocks/applyIndex", ApplyIndex(initStore))
	initStore.C.Post("/api/blocks/applyTimestamp", ApplyTimestamp(initStore))
	initStore.C.Post("/api/blocks/copy", Copy(initStore))
}
