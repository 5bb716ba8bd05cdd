package domain

import "time"

// Token describes an issued bearer token. Tokens are never persisted.
type Token struct {
	Value     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
