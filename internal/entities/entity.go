// Package entities holds the records exchanged with the rental API.
package entities

// Entity is a server-managed record identified by a server-issued id.
type Entity[T any] interface {
	EntityID() string
	WithID(id string) T
}

// Session is the authenticated state of one console user.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// Roles accepted by the register endpoint.
const (
	RolCliente = "cliente"
	RolAdmin   = "admin"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Rol      string `json:"rol"`
}

// MessageResponse is the body of auth replies and of API errors.
type MessageResponse struct {
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}
