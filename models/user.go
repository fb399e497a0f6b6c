package models

// Roles a signed-in user may hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user in the system. User has a username, password, role and account id.
// Username and password are required fields.
// Role and AccountId are assigned to the user on sign-in from the configured accounts.
type User struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role"`
	AccountId string `json:"accountId"`
}
