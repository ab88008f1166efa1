// internal/models/invite.go
package models

// Invite asks a recipient to manage a restaurant through Link.
type Invite struct {
	Email string `json:"email"`
	Link  string `json:"link"`
}
