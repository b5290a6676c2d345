package repository

import (
	"context"
	"net/http"

	apperrors "rentacars/internal/errors"
	"rentacars/internal/entities"
)

const (
	msgBadCredentials = "Credenciales incorrectas"
	msgRegistered     = "Usuario registrado exitosamente"
)

type AuthRepository interface {
	Login(ctx context.Context, username, password string) (*entities.Session, error)
	Register(ctx context.Context, req entities.RegisterRequest) (string, error)
}

type authRepository struct {
	client *APIClient
}

func NewAuthRepository(client *APIClient) AuthRepository {
	return &authRepository{client: client}
}

// Login succeeds only when the reply carries a token.
func (r *authRepository) Login(ctx context.Context, username, password string) (*entities.Session, error) {
	var resp entities.LoginResponse
	err := r.client.do(ctx, apiRequest{
		resource:  "auth",
		operation: "login",
		method:    http.MethodPost,
		path:      "/api/auth/login",
		body:      entities.LoginRequest{Username: username, Password: password},
		fallback:  msgBadCredentials,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = msgBadCredentials
		}
		return nil, apperrors.ErrUnauthorized(msg)
	}
	return &entities.Session{Token: resp.Token, UserID: resp.UserID}, nil
}

// Register returns the server message. A 2xx body that carries an error
// field is still a failure.
func (r *authRepository) Register(ctx context.Context, req entities.RegisterRequest) (string, error) {
	var resp entities.MessageResponse
	err := r.client.do(ctx, apiRequest{
		resource:  "auth",
		operation: "register",
		method:    http.MethodPost,
		path:      "/api/auth/register",
		body:      req,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != nil && resp.Error != false && resp.Error != "" {
		msg := resp.Message
		if s, ok := resp.Error.(string); ok && msg == "" {
			msg = s
		}
		return "", apperrors.NewResponseError(http.StatusOK, msg)
	}
	if resp.Message == "" {
		return msgRegistered, nil
	}
	return resp.Message, nil
}
