package exception

// StorageError wraps an error surfaced from the transactional store. The
// current operation is aborted; on commit failure no versions or blocks
// have been created.
type StorageError struct {
	*AppError
}

func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{
		AppError: &AppError{
			Code:    "STORAGE_ERROR",
			Message: message,
			Cause:   cause,
		},
	}
}
