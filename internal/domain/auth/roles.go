package auth

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var Roles = []string{RoleAdmin, RoleUser}

// UserContext is the authenticated caller carried on the request context.
type UserContext struct {
	UserID   string
	Username string
	Role     string
}

func (u UserContext) IsAdmin() bool {
	return u.Role == RoleAdmin
}
