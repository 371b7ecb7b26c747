package inventory

import "fmt"

// ValidationError reports a required field that is missing, a value that
// failed type conversion, or an update call where no supplied field
// survived validation. The operation is aborted with no partial mutation.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
	}
	return e.Msg
}

// NotFoundError reports a referenced record id that does not exist.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("frame %d not found", e.ID)
}

// InvalidArgumentError reports a structurally invalid request, such as a
// merge whose source and target are the same record.
type InvalidArgumentError struct {
	Msg string
}

func (e *InvalidArgumentError) Error() string {
	return e.Msg
}

// StoreError wraps an adapter-level failure. The in-flight unit of work
// is rolled back by the adapter; the cause is attached for the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
