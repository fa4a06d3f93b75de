package db

const FileDoesNotExistError = "file not found"
const BlockDoesNotExistError = "block not found"
const TagDoesNotExistError = "tag not found"
const LineDoesNotExistError = "line not found"
