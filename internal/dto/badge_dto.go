package dto

import "time"

// BadgeResponse describes a badge, optionally with its award instant.
type BadgeResponse struct {
	Name        string     `json:"name"`
	Icon        string     `json:"icon"`
	Description string     `json:"description"`
	AwardedAt   *time.Time `json:"awarded_at,omitempty"`
}
