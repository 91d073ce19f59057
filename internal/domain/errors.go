package domain

import "errors"

var (
	ErrEmptyDocument       = errors.New("document has no pages")
	ErrInvalidPage         = errors.New("invalid page features")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrCoverageViolation   = errors.New("sections do not cover the document")
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidSectionIndex = errors.New("section index out of range")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrExportFailed        = errors.New("section export failed")
	ErrPreviewUnavailable  = errors.New("page preview unavailable")
	ErrUnsupportedFormat   = errors.New("unsupported manifest format")
)
