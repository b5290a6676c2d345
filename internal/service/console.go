package service

import (
	"log/slog"

	"rentacars/internal/entities"
	"rentacars/internal/repository"
)

// Console builds shells that share one set of repositories.
type Console struct {
	Auth      repository.AuthRepository
	Customers CRUD[entities.Customer]
	Vehicles  CRUD[entities.Vehicle]
	Rentals   CRUD[entities.Rental]
	Logger    *slog.Logger
}

// NewConsole wires the repositories of one API client.
func NewConsole(client *repository.APIClient, logger *slog.Logger) *Console {
	return &Console{
		Auth:      repository.NewAuthRepository(client),
		Customers: repository.NewCustomerRepository(client),
		Vehicles:  repository.NewVehicleRepository(client),
		Rentals:   repository.NewRentalRepository(client),
		Logger:    logger,
	}
}

// NewShell returns a logged-out shell with fresh editors.
func (c *Console) NewShell() *Shell {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return NewShell(c.Auth, logger,
		NewListEditor(CustomerResource(c.Customers), logger),
		NewListEditor(VehicleResource(c.Vehicles), logger),
		NewListEditor(RentalResource(c.Rentals, c.Customers, c.Vehicles), logger),
	)
}
