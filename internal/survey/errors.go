package survey

import "fmt"

// ValidationError is a field-scoped, client-correctable failure. Items is
// set for batch fields that collect per-item failures (image paths).
type ValidationError struct {
	Field   string
	Message string
	Items   map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Items) > 0 {
		return fmt.Sprintf("%s: %d invalid items", e.Field, len(e.Items))
	}
	return e.Field + ": " + e.Message
}

// Details flattens the error into the response detail map.
func (e *ValidationError) Details() map[string]string {
	if len(e.Items) > 0 {
		details := make(map[string]string, len(e.Items))
		for k, v := range e.Items {
			details[k] = v
		}
		return details
	}
	return map[string]string{e.Field: e.Message}
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
