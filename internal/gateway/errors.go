package gateway

import "estate_marketplace_backend/internal/common"

// ErrDocumentNotFound is returned when no document matches an id or query.
var ErrDocumentNotFound = common.ErrNotFound.WithDetails("Document not found.")
