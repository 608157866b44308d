// Package result defines the tagged outcome type shared by every asynchronous
// operation in the control panel: success, partial success, or error. A Result
// can only be built through the Success, Partial and Failure constructors, so a
// status can never disagree with its payload.
package result

// Status describes the outcome of an operation.
type Status int

const (
	StatusSuccess Status = iota
	StatusPartial
	StatusError
)

// String returns the lowercase label for the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of an asynchronous operation carrying data of type T.
// The zero value is not valid; use one of the constructors.
type Result[T any] struct {
	status   Status
	data     T
	err      *Error
	message  string
	metadata map[string]any
}

// Success creates a successful result carrying data.
func Success[T any](data T, message string) Result[T] {
	return Result[T]{status: StatusSuccess, data: data, message: message}
}

// Partial creates a partial-success result: the operation produced usable data
// but ran into a degraded condition described by err.
func Partial[T any](data T, err *Error) Result[T] {
	return Result[T]{status: StatusPartial, data: data, err: err}
}

// Failure creates an error result.
func Failure[T any](err *Error) Result[T] {
	return Result[T]{status: StatusError, err: err}
}

// WithMeta returns a copy of the result with a metadata entry attached.
// Metadata is free-form key/value data for callers that format results.
func (r Result[T]) WithMeta(key string, value any) Result[T] {
	meta := make(map[string]any, len(r.metadata)+1)
	for k, v := range r.metadata {
		meta[k] = v
	}
	meta[key] = value
	r.metadata = meta
	return r
}

// Status returns the result status.
func (r Result[T]) Status() Status { return r.status }

// Data returns the payload. It is the zero value for error results.
func (r Result[T]) Data() T { return r.data }

// Err returns the attached error. It is nil for pure successes and non-nil for
// partial and error results.
func (r Result[T]) Err() *Error { return r.err }

// Message returns the optional human-readable message.
func (r Result[T]) Message() string { return r.message }

// Meta returns the metadata value for key, or nil.
func (r Result[T]) Meta(key string) any {
	return r.metadata[key]
}

// IsSuccess reports whether the operation fully succeeded.
func (r Result[T]) IsSuccess() bool { return r.status == StatusSuccess }

// IsPartial reports whether the operation succeeded with issues.
func (r Result[T]) IsPartial() bool { return r.status == StatusPartial }

// IsError reports whether the operation failed.
func (r Result[T]) IsError() bool { return r.status == StatusError }
