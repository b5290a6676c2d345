package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	apperrors "rentacars/internal/errors"
	"rentacars/internal/entities"
)

const msgMissingID = "La respuesta del servidor no incluye un id"

// ResourceRepository is the CRUD endpoint set of one resource under /api.
type ResourceRepository[T entities.Entity[T]] struct {
	client *APIClient
	name   string
	path   string
}

func NewResourceRepository[T entities.Entity[T]](client *APIClient, name string) *ResourceRepository[T] {
	return &ResourceRepository[T]{
		client: client,
		name:   name,
		path:   "/api/" + name,
	}
}

func NewCustomerRepository(client *APIClient) *ResourceRepository[entities.Customer] {
	return NewResourceRepository[entities.Customer](client, "clientes")
}

func NewVehicleRepository(client *APIClient) *ResourceRepository[entities.Vehicle] {
	return NewResourceRepository[entities.Vehicle](client, "carros")
}

func NewRentalRepository(client *APIClient) *ResourceRepository[entities.Rental] {
	return NewResourceRepository[entities.Rental](client, "rentas")
}

func (r *ResourceRepository[T]) Name() string {
	return r.name
}

// List decodes each record on its own; a record that does not decode is
// logged and skipped so the rest of the collection still shows.
func (r *ResourceRepository[T]) List(ctx context.Context, token string) ([]T, error) {
	var raw []json.RawMessage
	err := r.client.do(ctx, apiRequest{
		resource:  r.name,
		operation: "list",
		method:    http.MethodGet,
		path:      r.path,
		token:     token,
	}, &raw)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(raw))
	for i, elem := range raw {
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			r.client.logger.Warn("skipping undecodable record",
				"resource", r.name, "index", i, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *ResourceRepository[T]) Create(ctx context.Context, token string, item T) (T, error) {
	var created T
	err := r.client.do(ctx, apiRequest{
		resource:  r.name,
		operation: "create",
		method:    http.MethodPost,
		path:      r.path,
		token:     token,
		body:      item,
	}, &created)
	if err != nil {
		return created, err
	}
	if created.EntityID() == "" {
		return created, apperrors.NewResponseError(http.StatusOK, msgMissingID)
	}
	return created, nil
}

func (r *ResourceRepository[T]) Update(ctx context.Context, token, id string, item T) (T, error) {
	var updated T
	err := r.client.do(ctx, apiRequest{
		resource:  r.name,
		operation: "update",
		method:    http.MethodPut,
		path:      r.path + "/" + url.PathEscape(id),
		token:     token,
		body:      item,
	}, &updated)
	if err != nil {
		return updated, err
	}
	if updated.EntityID() == "" {
		return updated, apperrors.NewResponseError(http.StatusOK, msgMissingID)
	}
	return updated, nil
}

func (r *ResourceRepository[T]) Delete(ctx context.Context, token, id string) error {
	return r.client.do(ctx, apiRequest{
		resource:  r.name,
		operation: "delete",
		method:    http.MethodDelete,
		path:      r.path + "/" + url.PathEscape(id),
		token:     token,
	}, nil)
}
