// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These codes provide clients with a stable, machine-readable error taxonomy
// that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Domain-specific codes distinguish provider and asset failures, which
//     share the 502 status.
//
// Example response:
//
//	{
//	  "success": false,
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "upstream_error",
//	  "error": "egg image: upstream provider error: ...",
//	  "message": "Failed to create egg"
//	}
package handlers

const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodePayloadTooLarge = "payload_too_large"
	ErrCodeInternal        = "internal_error"

	// Domain-specific:
	ErrCodeUpstream         = "upstream_error"
	ErrCodeAssetDownload    = "asset_download_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
