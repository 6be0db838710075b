package entity

import (
	"slices"
	"time"
)

// Roles válidos.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
	RoleCajero    = "cajero"
)

// User representa un usuario que opera el sistema. Sus movimientos y documentos quedan
// firmados con su ID (actor).
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt
	Active       bool
	Roles        []string
	CreatedAt    time.Time
}

// HasAnyRole indica si el usuario tiene alguno de los roles dados.
func (u *User) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(u.Roles, r) {
			return true
		}
	}
	return false
}
