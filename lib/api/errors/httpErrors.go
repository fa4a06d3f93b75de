package errors

var InvalidRequestError = Error{
	Message: "Invalid request",
	Error:   400,
}

var ValidationError = Error{
	Message: "Validation failed",
	Error:   422,
}

var FileNotFoundError = Error{
	Message: "File not found",
	Error:   404,
}

var BlockNotFoundError = Error{
	Message: "Block not found",
	Error:   404,
}

var TagNotFoundError = Error{
	Message: "Tag not found",
	Error:   404,
}

var OutOfRangeError = Error{
	Message: "Line number or index out of range",
	Error:   400,
}

var FileTooLargeError = Error{
	Message: "File exceeds the import size limit",
	Error:   413,
}

var InternalServerError = Error{
	Message: "Internal server error",
	Error:   500,
}
