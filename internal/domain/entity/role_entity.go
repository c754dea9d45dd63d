package entity

// Role names stored in users.role. Authorization beyond storing the role and
// permissions columns is handled by the hosted backend.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	DefaultRole = RoleCustomer
)
