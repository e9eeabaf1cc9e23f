// Package errors defines the sentinel errors shared across the acquisition
// pipeline. Components wrap internal failures into one of these before they
// cross a package boundary so the CLI can classify fatal conditions with
// errors.Is.
package errors

import "fmt"

var (
	// Bootstrap errors. Both are fatal: without a decrypted server address
	// nothing downstream can run.
	ErrSignatureNotFound = fmt.Errorf("game config signature not found in any search root")
	ErrBootstrapDecode   = fmt.Errorf("failed to decode bootstrap config")

	// Catalog errors.
	ErrFetchFailed   = fmt.Errorf("required remote fetch failed")
	ErrCatalogDecode = fmt.Errorf("failed to decode binary catalog")
	ErrNoPackageURL  = fmt.Errorf("no candidate package URL accepted")

	// Transfer errors. Retried per entry, never fatal for the batch.
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrSizeUnknown      = fmt.Errorf("could not determine remote file size")
	ErrChecksumMismatch = fmt.Errorf("file checksum mismatch")

	// Container errors.
	ErrContainerDecrypt = fmt.Errorf("failed to decrypt container entry")

	// Config and cache errors.
	ErrConfigParse    = fmt.Errorf("failed to parse config")
	ErrInvalidPath    = fmt.Errorf("invalid path")
	ErrCacheDirectory = fmt.Errorf("cache directory cannot be empty")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
