package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/platform/auth"
)

// Audited actions. Every mutating operation in the LIMS records exactly one
// of these (critical-value alerts record an extra CREATE under the
// critical_alerts module).
const (
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionUpdateStatus = "UPDATE_STATUS"
	ActionReject       = "REJECT"
	ActionDelete       = "DELETE"
)

// Event is a single immutable audit-trail entry.
type Event struct {
	ID        uuid.UUID              `db:"id" json:"id"`
	ActorID   string                 `db:"actor_id" json:"actor_id"`
	ActorName string                 `db:"actor_name" json:"actor_name"`
	ActorRole string                 `db:"actor_role" json:"actor_role"`
	Action    string                 `db:"action" json:"action"`
	Module    string                 `db:"module" json:"module"`
	RecordID  string                 `db:"record_id" json:"record_id"`
	Details   map[string]interface{} `db:"details" json:"details,omitempty"`
	IPAddress string                 `db:"ip_address" json:"ip_address,omitempty"`
	Recorded  time.Time              `db:"recorded" json:"recorded"`
}

// Actor identifies who performed an audited action.
type Actor struct {
	ID   string
	Name string
	Role string
}

// ActorFromContext builds an Actor from the authenticated request context.
// Falls back to "system" for background and unauthenticated work.
func ActorFromContext(ctx context.Context) Actor {
	a := Actor{
		ID:   auth.UserIDFromContext(ctx),
		Name: auth.UserNameFromContext(ctx),
	}
	if roles := auth.RolesFromContext(ctx); len(roles) > 0 {
		a.Role = roles[0]
	}
	if a.ID == "" {
		a.ID = "system"
		a.Name = "System"
	}
	return a
}
