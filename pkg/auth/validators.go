package auth

// LoginPayload represents the login request body.
type LoginPayload struct {
	Email    string `json:"email" validate:"required,email" mod:"trim,lcase"`
	Password string `json:"password" validate:"required"`
}

// RegisterPayload represents the registration request body.
type RegisterPayload struct {
	Name     string `json:"name" validate:"required,max=100" mod:"trim"`
	Email    string `json:"email" validate:"required,email" mod:"trim,lcase"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin librarian borrower" mod:"trim,lcase"`
}

// ForgotPasswordPayload represents the forgot password request body.
type ForgotPasswordPayload struct {
	Email string `json:"email" validate:"required,email" mod:"trim,lcase"`
}

// ResetPasswordPayload represents the reset password request body.
type ResetPasswordPayload struct {
	Token    string `json:"token" validate:"required" mod:"trim"`
	Password string `json:"password" validate:"required,min=6"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions,omitempty"`
}

// ForgotPasswordResponse carries the reset URL outside of production, where
// no email is sent.
type ForgotPasswordResponse struct {
	ResetURL string `json:"reset_url,omitempty"`
}
