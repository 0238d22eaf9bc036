// Package audit records authorization-relevant decisions as immutable facts.
// It is a one-way sink: this service writes facts and never reads them back.
package audit

import "time"

// Fact captures who did what, for which tenant, and with what outcome.
type Fact struct {
	ActorID    string         `json:"actorId"`
	ActorEmail string         `json:"actorEmail,omitempty"`
	TenantID   string         `json:"tenantId,omitempty"`
	Action     string         `json:"action"`
	Method     string         `json:"method,omitempty"`
	Path       string         `json:"path,omitempty"`
	TargetType string         `json:"targetType,omitempty"`
	TargetID   string         `json:"targetId,omitempty"`
	Status     string         `json:"status"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	StartedAt  time.Time      `json:"startedAt,omitempty"`
	DurationMS int64          `json:"durationMs"`
	OccurredAt time.Time      `json:"occurredAt"`
}
