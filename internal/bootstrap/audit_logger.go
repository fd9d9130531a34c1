package bootstrap

import "context"

type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

// AuditLogger records operator-relevant events: server lifecycle and bulk
// attendance imports.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
