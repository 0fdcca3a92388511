package domain

import "time"

// Session describes an identity provider session presented as a bearer token.
type Session struct {
	Subject   string
	Email     string
	Name      string
	TokenID   string
	ExpiresAt time.Time
}
