package models

// User is a staff or portal account. RouteID is the assigned route for
// operators and ticket checkers; zero means unassigned.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	RouteID  int64  `json:"route_id,omitempty"`
	IsActive bool   `json:"is_active"`
}
