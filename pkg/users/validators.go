package users

import "github.com/shelfwise/shelfwise/pkg/auth"

// CreateUserPayload represents the request body for creating a user.
type CreateUserPayload struct {
	Name     string `json:"name" validate:"required,max=100" mod:"trim"`
	Email    string `json:"email" validate:"required,email" mod:"trim,lcase"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin librarian borrower" mod:"trim,lcase"`
}

// UpdateUserPayload represents the request body for updating a user.
type UpdateUserPayload struct {
	Name     *string `json:"name" validate:"omitempty,max=100" mod:"trim"`
	Email    *string `json:"email" validate:"omitempty,email" mod:"trim,lcase"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin librarian borrower" mod:"trim,lcase"`
	IsActive *bool   `json:"is_active"`
}

// ListUsersQuery represents the query parameters for listing users.
type ListUsersQuery struct {
	Limit  int `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int `query:"offset" validate:"min=0"`
}

// ListUsersResponse is a page of users.
type ListUsersResponse struct {
	Users []auth.UserResponse `json:"users"`
	Total int                 `json:"total"`
}
