package roles

import "github.com/shelfwise/shelfwise/pkg/models"

// ListRolesQuery represents the query parameters for listing roles.
type ListRolesQuery struct {
	Limit  int `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int `query:"offset" validate:"min=0"`
}

// ListRolesResponse is a page of roles.
type ListRolesResponse struct {
	Roles []*models.Role `json:"roles"`
	Total int            `json:"total"`
}
