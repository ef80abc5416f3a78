package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailure matches any failed round trip to the model.
	ErrGenerationFailure = errors.New("generation failed")
	// ErrSchemaMismatch matches a payload that does not fit the expected shape.
	ErrSchemaMismatch = errors.New("model returned an unexpected format")
	// ErrEmptyResponse is wrapped by GenerationError when the model sent no text.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// GenerationError reports a failed call to the generation service.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("%s: generation failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailure }

// SchemaError reports a payload that failed validation. Raw keeps the payload
// for logging and is never part of Error().
type SchemaError struct {
	Shape  string
	Path   string
	Reason string
	Raw    string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: unexpected format: %s", e.Shape, e.Reason)
	}
	return fmt.Sprintf("%s: unexpected format at %s: %s", e.Shape, e.Path, e.Reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchemaMismatch }

func generationFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		if ge.Op == "" {
			return &GenerationError{Op: op, Err: ge.Err}
		}
		return err
	}
	return &GenerationError{Op: op, Err: err}
}
