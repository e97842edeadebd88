package auth

const (
	RoleAdmin  = "org:admin"
	RoleMember = "org:member"
)

// UserContext represents the authenticated user, set by auth middleware.
type UserContext struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	OrgID   string `json:"org_id"`
	OrgRole string `json:"org_role"`
}

// IsAdmin checks whether the user administers the active organization.
func (u *UserContext) IsAdmin() bool {
	return u.OrgRole == RoleAdmin
}

// Access maps a settings tab to the organization roles allowed to open it.
type Access map[string][]string

// Allowed reports whether u may open tab. Admins may open every tab; an
// unlisted tab is admin-only.
func (a Access) Allowed(u *UserContext, tab string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	for _, role := range a[tab] {
		if role == u.OrgRole {
			return true
		}
	}
	return false
}

// Tabs returns every configured tab u may open.
func (a Access) Tabs(u *UserContext) []string {
	var tabs []string
	for tab := range a {
		if a.Allowed(u, tab) {
			tabs = append(tabs, tab)
		}
	}
	return tabs
}
