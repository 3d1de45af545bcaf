// Package errors defines the error taxonomy shared by every uvfs6 package.
//
// Every fallible operation in the engine returns a DriverError rather than a
// bare error, so callers can type-switch on the underlying Kind without
// unwrapping chains of fmt.Errorf calls.
package errors

import "fmt"

// DriverError is the error interface returned by every engine operation.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
}

// Kind is one of the error categories from the filesystem's error taxonomy.
// It implements both `error` and DriverError so it can be returned, compared,
// and further annotated in one line.
type Kind string

const (
	// DeviceBusy indicates a block device operation was attempted while the
	// device was already mid-operation.
	DeviceBusy = Kind("device busy")
	// IOFailure indicates the device's backing stream itself failed (a bad
	// sector buffer length, or a seek/read/write error), as opposed to a
	// re-entrancy violation.
	IOFailure = Kind("device i/o failure")
	// InvalidName indicates a name was too long or had a forbidden character.
	InvalidName = Kind("invalid name")
	// FileNotFound indicates a name is absent from the target directory.
	FileNotFound = Kind("no such file or directory")
	// NoDirectory indicates an operation expected a directory and got
	// something else.
	NoDirectory = Kind("not a directory")
	// ReadDir indicates an attempt to cat a directory.
	ReadDir = Kind("is a directory")
	// WriteDir indicates an attempt to write to a directory.
	WriteDir = Kind("cannot write to a directory")
	// RemoveDir indicates rm was used on a directory; rmdir is required.
	RemoveDir = Kind("is a directory, use rmdir")
	// Occuped indicates rmdir was attempted on "." or "..".
	Occuped = Kind("refusing to remove . or ..")
	// FileExist indicates a create would collide with an existing name.
	FileExist = Kind("file exists")
	// DirFull indicates a directory's descriptor table has no free slot.
	DirFull = Kind("directory is full")
	// ImapFull indicates the inode bitmap has no free bit.
	ImapFull = Kind("no free inodes")
	// DmapFull indicates the data bitmap has no free bit.
	DmapFull = Kind("no space left on device")
	// UndefBlk indicates a logical block index exceeds an inode's size.
	UndefBlk = Kind("block index out of range")
	// InvalidCur indicates a cursor's inode has been freed.
	InvalidCur = Kind("stale directory cursor")
	// MvCurOrPrev indicates an attempt to mv "." or "..".
	MvCurOrPrev = Kind("refusing to move . or ..")
)

// Error implements the error interface.
func (k Kind) Error() string {
	return string(k)
}

// WithMessage returns a DriverError of this Kind carrying a custom message.
func (k Kind) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", string(k), message),
		originalError: k,
	}
}

// WrapError returns a DriverError whose message is this Kind's text followed
// by the text of a lower-level error, e.g. one surfaced by the block device.
// It unwraps to err, not to the Kind, so errors.Is matches err.
func (k Kind) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", string(k), err.Error()),
		originalError: err,
	}
}

// Is reports whether target is the same Kind as k, letting callers write
// errors.Is(err, uvfserrors.FileNotFound) against the standard errors package.
func (k Kind) Is(target error) bool {
	other, ok := target.(Kind)
	return ok && other == k
}

type customDriverError struct {
	message       string
	originalError error
}

// Error implements the error interface.
func (e customDriverError) Error() string {
	return e.message
}

// WithMessage appends another message to the chain.
func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

// WrapError appends a lower-level error to the chain.
func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}

// Unwrap lets errors.Is/errors.As see through the chain.
func (e customDriverError) Unwrap() error {
	return e.originalError
}
