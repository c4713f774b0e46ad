package domain

type Role string

const (
	RoleBuyer      Role = "buyer"
	RoleVendor     Role = "vendor"
	RoleOps        Role = "ops"
	RoleSuperadmin Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleVendor, RoleOps, RoleSuperadmin:
		return true
	}
	return false
}

// User is the profile the backend reports for the current token.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         Role   `json:"role"`
	Phone        string `json:"phone,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
}
