package streamfs

import (
	"fmt"
	"io"
	"reflect"
	"strings"
)

// UseError reports a failed Use block whose resource also failed to close.
// Err is the block's failure and Suppressed holds the close failure.
type UseError struct {
	Err        error
	Suppressed []error
}

func (e *UseError) Error() string {
	if len(e.Suppressed) == 0 {
		return e.Err.Error()
	}
	var b strings.Builder
	b.WriteString(e.Err.Error())
	for _, s := range e.Suppressed {
		fmt.Fprintf(&b, " (suppressed: %v)", s)
	}
	return b.String()
}

// Unwrap returns the primary error only, so errors.Is and errors.As match
// the block's failure and not a suppressed close failure.
func (e *UseError) Unwrap() error {
	return e.Err
}

// Use runs block with resource and then closes resource, even if block
// fails or panics. A nil resource is passed to block and not closed.
//
// If block fails and Close fails too, the result is a *UseError whose Err is
// the block's error and whose Suppressed holds the close error. If only
// Close fails, its error is returned as is.
func Use[T io.Closer, R any](resource T, block func(T) (R, error)) (result R, err error) {
	closed := false
	defer func() {
		// Close on panic, then keep unwinding
		if !closed && !isNil(resource) {
			resource.Close()
		}
	}()

	result, err = block(resource)

	closed = true
	var closeErr error
	if !isNil(resource) {
		closeErr = resource.Close()
	}

	switch {
	case err != nil && closeErr != nil:
		var zero R
		return zero, &UseError{Err: err, Suppressed: []error{closeErr}}
	case err != nil:
		var zero R
		return zero, err
	case closeErr != nil:
		var zero R
		return zero, closeErr
	}
	return result, nil
}

// isNil reports whether v is a nil interface or a typed nil pointer-like
// value, which cannot safely be closed.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
