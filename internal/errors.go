package internal

import "fmt"

// StorageError represents errors opening or reading the local store
type StorageError struct {
	Path string
	Op   string // "open", "read", "remove"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WriteError represents a refused store write (disk full, read-only file,
// closed database). It is non-fatal: in-memory state stays correct for the
// session, the write is simply not durable.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write error [%s]: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding persisted values
type ParseError struct {
	Key string // storage key
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s]: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RequestError represents a failed call to the response endpoint
type RequestError struct {
	Endpoint string
	Status   int // 0 when the request never got a response
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request error [%s]: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("request error [%s]: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
