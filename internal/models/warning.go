// internal/models/warning.go
package models

// Warning reports a best-effort side effect that failed without failing the
// operation that triggered it.
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}
