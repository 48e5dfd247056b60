package workflow

import "strings"

// Role identifies a member's function within a translation team. Roles are a
// closed enumeration: authorization is a pure function of (role, edge) and
// needs no database lookup.
type Role string

const (
	RoleLeader     Role = "leader"
	RoleEditor     Role = "editor"
	RoleTranslator Role = "translator"
	RoleCleaner    Role = "cleaner"
	RoleTypesetter Role = "typesetter"
)

var allRoles = []Role{
	RoleLeader,
	RoleEditor,
	RoleTranslator,
	RoleCleaner,
	RoleTypesetter,
}

var roleSet = func() map[Role]struct{} {
	set := make(map[Role]struct{}, len(allRoles))
	for _, role := range allRoles {
		set[role] = struct{}{}
	}
	return set
}()

var roleDescriptions = map[Role]string{
	RoleLeader:     "Team leader with full transition authority",
	RoleEditor:     "Reviews and adapts finished translations",
	RoleTranslator: "Produces the translated script",
	RoleCleaner:    "Cleans and redraws the raw pages",
	RoleTypesetter: "Typesets the translated text onto pages",
}

// AllRoles returns the ordered list of known roles.
func AllRoles() []Role {
	cp := make([]Role, len(allRoles))
	copy(cp, allRoles)
	return cp
}

// ParseRole converts a string into a known Role.
func ParseRole(value string) (Role, bool) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := roleSet[normalized]
	return normalized, ok
}

// Description returns a short human-readable summary of the role.
func (r Role) Description() string {
	return roleDescriptions[r]
}
