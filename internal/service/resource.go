package service

import (
	"context"

	"rentacars/internal/entities"
)

// CRUD is the remote capability a list-editor works against.
type CRUD[T any] interface {
	List(ctx context.Context, token string) ([]T, error)
	Create(ctx context.Context, token string, item T) (T, error)
	Update(ctx context.Context, token, id string, item T) (T, error)
	Delete(ctx context.Context, token, id string) error
}

// Lookup loads the options of a select field.
type Lookup func(ctx context.Context, token string) ([]Option, error)

// Resource describes one resource for the generic list-editor: its remote
// operations, its form schema and how entities map to drafts and rows.
type Resource[T entities.Entity[T]] struct {
	Name     string
	Title    string
	Singular string
	Fields   []Field
	Columns  []string

	Repo    CRUD[T]
	Lookups map[string]Lookup

	// NewDraft returns the values of an empty create form.
	NewDraft func(s entities.Session) Draft
	// ToDraft copies an entity into an edit draft.
	ToDraft func(item T) Draft
	// FromDraft builds the payload sent to the API.
	FromDraft func(d Draft) (T, error)
	// Row renders the list cells, aligned with Columns.
	Row func(item T) []string
}
