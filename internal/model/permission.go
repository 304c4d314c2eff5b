package model

import (
	"strings"

	"printshop-api/internal/authz"
)

// Permission mirrors one authz.Permission code so the admin UI can list them.
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"type:varchar(60);uniqueIndex;not null" json:"code"`
	Resource    string `gorm:"type:varchar(60)" json:"resource"`
	Description string `gorm:"type:varchar(150)" json:"description"`
}

// PermissionsFromPolicy builds the rows for every known permission code.
func PermissionsFromPolicy() []Permission {
	out := make([]Permission, 0, len(authz.AllPermissions))
	for _, p := range authz.AllPermissions {
		out = append(out, Permission{
			Code:        string(p),
			Resource:    p.Resource(),
			Description: describePermission(p),
		})
	}
	return out
}

// describePermission turns "adjust_stock" into "Adjust stock".
func describePermission(p authz.Permission) string {
	verb, rest, _ := strings.Cut(string(p), "_")
	if verb == "" {
		return ""
	}
	desc := strings.ToUpper(verb[:1]) + verb[1:]
	if rest != "" {
		desc += " " + strings.ReplaceAll(rest, "_", " ")
	}
	return desc
}
