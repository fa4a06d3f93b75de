package utils

import (
	goerrors "errors"

	apiErrors "github.com/ether/blockpad-go/lib/api/errors"
	"github.com/ether/blockpad-go/lib/exception"
)

// MapError translates a core error into the HTTP status and payload the
// API responds with.
func MapError(err error) (int, apiErrors.Error) {
	var notFound *exception.NotFoundError
	if goerrors.As(err, &notFound) {
		switch notFound.Kind {
		case "file":
			return 404, apiErrors.FileNotFoundError
		case "tag":
			return 404, apiErrors.TagNotFoundError
		default:
			return 404, apiErrors.BlockNotFoundError
		}
	}

	var outOfRange *exception.OutOfRangeError
	if goerrors.As(err, &outOfRange) {
		return 400, apiErrors.OutOfRangeError
	}

	return 500, apiErrors.InternalServerError
}
