// Package services implements the hatchery: the orchestration of provider
// calls, asset downloads and record persistence behind egg creation, image
// analysis and creature hatching.
//
// This file centralizes the service-level error values. Translation into
// HTTP status codes happens in the handlers package.
package services

import "errors"

var (
	// ErrEggNotFound indicates that the referenced egg does not exist.
	ErrEggNotFound = errors.New("egg not found")

	// ErrInvalidInput is returned when a required field is empty or an
	// upload cannot be used.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream wraps every failure reported by the AI provider.
	ErrUpstream = errors.New("upstream provider error")

	// ErrAssetDownload is returned when a provider-hosted image cannot be
	// fetched (transport error or non-2xx status).
	ErrAssetDownload = errors.New("asset download failed")
)
