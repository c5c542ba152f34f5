package domain

import (
	"time"

	"github.com/dlclark/regexp2"
)

const (
	RoleBuyer = "buyer"
	RoleAdmin = "admin"
)

// A PIN is 4 to 6 digits and may not be one digit repeated (1111, 000000).
var pinExp = regexp2.MustCompile(`^(?!(\d)\1+$)\d{4,6}$`, regexp2.None)

type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	PINHash   string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidPIN reports whether pin is acceptable as an account PIN.
func ValidPIN(pin string) bool {
	ok, err := pinExp.MatchString(pin)
	return err == nil && ok
}
