package domain

// ID is used across domain entities.
type ID int64

// Caller roles known to the access-control layer.
const (
	RoleSuperAdmin    = "super_admin"
	RoleAdmin         = "admin"
	RoleManager       = "manager"
	RoleOperator      = "operator"
	RoleTicketChecker = "ticket_checker"
	RolePortalUser    = "portal_user"
)

// RequestContext carries the authenticated caller as supplied by the
// access-control layer: role plus, for route-scoped roles, the
// assigned route.
type RequestContext struct {
	UserID  int64  `json:"user_id"`
	Role    string `json:"role"`
	RouteID int64  `json:"route_id,omitempty"`
}

// ElevatedRole reports whether the caller bypasses route scoping.
func (c RequestContext) ElevatedRole() bool {
	switch c.Role {
	case RoleSuperAdmin, RoleAdmin, RoleManager:
		return true
	default:
		return false
	}
}
