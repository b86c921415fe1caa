package settings

import "fmt"

// CorruptError reports an unparseable settings file. The caller received
// defaults; the file on disk is untouched.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("settings: corrupt file %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// VersionError reports a document written by a newer release.
type VersionError struct {
	Path    string
	Version int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("settings: %s has unsupported version %d", e.Path, e.Version)
}
