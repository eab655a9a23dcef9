package middleware

import (
	"net/http"

	"sitelabor/internal/domain/audit"
	"sitelabor/internal/transport/http/shared"
)

// AuditEntry fills the actor, request id and client address of an audit
// entry from the request.
func AuditEntry(r *http.Request, action, entityType, entityID string, before, after any) audit.Entry {
	user, _ := GetUser(r.Context())
	return audit.Entry{
		ActorID:    user.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		Before:     before,
		After:      after,
	}
}
