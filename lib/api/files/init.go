package files

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ether/blockpad-go/lib"
	apiErrors "github.com/ether/blockpad-go/lib/api/errors"
	apiUtils "github.com/ether/blockpad-go/lib/api/utils"
)

// LoadFileRequest imports one file into the workspace.
type LoadFileRequest struct {
	Path    string `json:"path" validate:"required"`
	Eol     string `json:"eol" validate:"omitempty,oneof=unix dos"`
	Content string `json:"content"`
}

// FileIDResponse carries the id of an imported file.
type FileIDResponse struct {
	FileID string `json:"fileID"`
}

// BlockIDResponse carries a block id.
type BlockIDResponse struct {
	BlockID string `json:"blockID"`
}

func LoadFile(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var request LoadFileRequest
		if err := c.BodyParser(&request); err != nil {
			return c.Status(400).JSON(apiErrors.InvalidRequestError)
		}
		if err := initStore.Validator.Struct(request); err != nil {
			return c.Status(422).JSON(apiErrors.ValidationError)
		}
		if int64(len(request.Content)) > initStore.RetrievedSettings.ImportMaxFileSize {
			return c.Status(413).JSON(apiErrors.FileTooLargeError)
		}

		eol := initStore.RetrievedSettings.DefaultEol
		if request.Eol == "dos" {
			eol = "\r\n"
		} else if request.Eol == "unix" {
			eol = "\n"
		}

		fileId, err := initStore.BlockManager.LoadFile(request.Path, eol, request.Content)
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(FileIDResponse{FileID: fileId})
	}
}

func GetRootBlock(initStore *lib.InitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileId := c.Params("fileId")
		blockId, err := initStore.BlockManager.GetRootBlock(fileId)
		if err != nil {
			status, apiError := apiUtils.MapError(err)
			return c.Status(status).JSON(apiError)
		}
		return c.JSON(BlockIDResponse{BlockID: blockId})
	}
}

func Init(initStore *lib.InitStore) {
	initStore.C.Post("/api/files", LoadFile(initStore))
	initStore.C.Get("/api/files/:fileId/root", GetRootBlock(initStore))
}
