package dto

// RegisterRequest represents the request body for POST /api/auth/register.
// Fields are not validated; empty values reach the usecase as-is.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
