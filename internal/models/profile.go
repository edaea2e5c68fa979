// ABOUTME: Profile is the remote per-user document read at session start
// ABOUTME: Only the summary field is written back by the session manager
package models

import (
	"strings"
	"time"
)

// Profile document field names as stored remotely
const (
	FieldName      = "name"
	FieldEmail     = "email"
	FieldSummary   = "lastConversationSummary"
	FieldUpdatedAt = "updatedAt"
)

// Profile represents the user's account document
type Profile struct {
	UserID                  string    `json:"-"`
	Name                    string    `json:"name"`
	Email                   string    `json:"email,omitempty"`
	LastConversationSummary string    `json:"lastConversationSummary,omitempty"`
	UpdatedAt               time.Time `json:"updatedAt,omitempty"`
}

// HasSummary reports whether a usable prior summary is present
func (p *Profile) HasSummary() bool {
	return p != nil && strings.TrimSpace(p.LastConversationSummary) != ""
}

// DisplayName returns the trimmed name, or empty when unknown
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Name)
}
