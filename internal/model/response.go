package model

// Response is the common API envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse wraps a successful result.
func NewSuccessResponse(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

// NewErrorResponse wraps a failure with an optional detail string.
func NewErrorResponse(message, detail string) Response {
	return Response{Success: false, Message: message, Error: detail}
}

// CreateVisitResponse reports the visit a create call resolved to. Created
// is false when an unfinished visit was reused instead of written.
type CreateVisitResponse struct {
	UserID  string `json:"userId"`
	VisitID string `json:"visitId"`
	Created bool   `json:"created"`
}

// LoginRequest authenticates an account by email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterMyselfRequest is a patient's self-registration payload.
type RegisterMyselfRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

// CreateUserRequest is the admin payload creating an auth account together
// with its profile.
type CreateUserRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	EmailVerified *bool  `json:"emailVerified"`
	User          User   `json:"user" binding:"required"`
}

// UpdateUserRequest patches profile names; nil fields are left unchanged.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// UserResponse pairs a profile with its subject id.
type UserResponse struct {
	UserID string `json:"userId"`
	User   *User  `json:"user"`
}

// UserRoleResponse reports the role claim of an account; Role is nil when
// the account carries no role claim.
type UserRoleResponse struct {
	UserID string    `json:"userId"`
	Role   *UserRole `json:"role"`
}
