package models

// RegisterRequest is the body of POST /api/user/register.
// Email format and password complexity are checked at the edge before
// the directory is called.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN"`
}

// LoginRequest is the body of POST /api/user/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateListRequest is the body of POST /api/lists.
type CreateListRequest struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category,omitempty"`
}

// CreateListResponse carries the generated code of a new list.
type CreateListResponse struct {
	ListCode string `json:"listCode"`
}

// RenameListRequest is the body of PATCH /api/lists/{code}.
type RenameListRequest struct {
	Name string `json:"name" validate:"required"`
}

// AddProductRequest is the body of POST /api/lists/{code}/products.
type AddProductRequest struct {
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category,omitempty"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Notes    string  `json:"notes,omitempty"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// UpdateProductRequest is the body of PUT /api/products/{id}.
type UpdateProductRequest struct {
	ListCode  string  `json:"listCode" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Category  string  `json:"category,omitempty"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	Purchased bool    `json:"purchased"`
	Notes     string  `json:"notes,omitempty"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// ToggleRequest is the body of POST /api/products/{id}/toggle.
type ToggleRequest struct {
	Purchased bool `json:"purchased"`
}

// MembersResponse lists a shopping list's members, creator first.
type MembersResponse struct {
	ListCode string   `json:"listCode"`
	Members  []string `json:"members"`
}

// UserResponse describes the authenticated user without the password.
type UserResponse struct {
	Email        string  `json:"email"`
	Role         Role    `json:"role"`
	CreatedLists CodeSet `json:"createdLists"`
	JoinedLists  CodeSet `json:"joinedLists"`
}

// InternalStatsResponse reports service-wide totals for operators.
type InternalStatsResponse struct {
	Users int `json:"users"`
	Lists int `json:"lists"`
}
