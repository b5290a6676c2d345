package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "rentacars/internal/errors"
	"rentacars/internal/entities"
	"rentacars/internal/utils"
)

// Page names double as resource names.
const (
	ResourceCustomers = "clientes"
	ResourceVehicles  = "carros"
	ResourceRentals   = "rentas"
)

func CustomerResource(repo CRUD[entities.Customer]) Resource[entities.Customer] {
	return Resource[entities.Customer]{
		Name:     ResourceCustomers,
		Title:    "Clientes",
		Singular: "Cliente",
		Fields: []Field{
			{Name: "nombre", Label: "Nombre", Type: FieldText, Required: true, Placeholder: "Ej: Juan"},
			{Name: "apellido", Label: "Apellido", Type: FieldText, Required: true, Placeholder: "Ej: Pérez"},
			{Name: "email", Label: "Email", Type: FieldEmail, Required: true, Placeholder: "cliente@correo.com"},
			{Name: "telefono", Label: "Teléfono", Type: FieldTel, Required: true, Placeholder: "Ej: 555-1234"},
			{Name: "licenciaConducir", Label: "Licencia de Conducir", Type: FieldText, Required: true},
		},
		Columns: []string{"Nombre", "Email", "Teléfono", "Licencia"},
		Repo:    repo,
		ToDraft: func(c entities.Customer) Draft {
			return Draft{
				"nombre":           c.Nombre,
				"apellido":         c.Apellido,
				"email":            c.Email,
				"telefono":         c.Telefono,
				"licenciaConducir": c.LicenciaConducir,
			}
		},
		FromDraft: func(d Draft) (entities.Customer, error) {
			return entities.Customer{
				Nombre:           d.Get("nombre"),
				Apellido:         d.Get("apellido"),
				Email:            d.Get("email"),
				Telefono:         d.Get("telefono"),
				LicenciaConducir: d.Get("licenciaConducir"),
			}, nil
		},
		Row: func(c entities.Customer) []string {
			return []string{c.FullName(), c.Email, c.Telefono, c.LicenciaConducir}
		},
	}
}

func VehicleResource(repo CRUD[entities.Vehicle]) Resource[entities.Vehicle] {
	return Resource[entities.Vehicle]{
		Name:     ResourceVehicles,
		Title:    "Vehículos",
		Singular: "Vehículo",
		Fields: []Field{
			{Name: "marca", Label: "Marca", Type: FieldText, Required: true, Placeholder: "Ej: Toyota, Honda, Ford"},
			{Name: "modelo", Label: "Modelo", Type: FieldText, Required: true, Placeholder: "Ej: Corolla"},
			{Name: "año", Label: "Año", Type: FieldNumber, Required: true, Min: "1900", Step: "1"},
			{Name: "matricula", Label: "Matrícula", Type: FieldText, Required: true, Placeholder: "Ej: ABC-123"},
			{Name: "disponible", Label: "Disponible", Type: FieldCheckbox},
		},
		Columns: []string{"Marca", "Modelo", "Año", "Matrícula", "Disponible"},
		Repo:    repo,
		NewDraft: func(entities.Session) Draft {
			return Draft{"marca": "", "modelo": "", "año": "", "matricula": "", "disponible": "true"}
		},
		ToDraft: func(v entities.Vehicle) Draft {
			return Draft{
				"marca":      v.Marca,
				"modelo":     v.Modelo,
				"año":        v.Anio.String(),
				"matricula":  v.Matricula,
				"disponible": strconv.FormatBool(v.IsAvailable()),
			}
		},
		FromDraft: func(d Draft) (entities.Vehicle, error) {
			year, err := strconv.Atoi(strings.TrimSpace(d.Get("año")))
			if err != nil {
				return entities.Vehicle{}, apperrors.NewValidationError("año", "El año debe ser un número")
			}
			return entities.Vehicle{
				Marca:      d.Get("marca"),
				Modelo:     d.Get("modelo"),
				Anio:       entities.Year(year),
				Matricula:  d.Get("matricula"),
				Disponible: entities.Bool(utils.ParseBool(d.Get("disponible"))),
			}, nil
		},
		Row: func(v entities.Vehicle) []string {
			disponible := "No"
			if v.IsAvailable() {
				disponible = "Sí"
			}
			return []string{v.Marca, v.Modelo, v.Anio.String(), v.Matricula, disponible}
		},
	}
}

// RentalResource also loads customers and vehicles to fill the selection
// controls of the rental form.
func RentalResource(repo CRUD[entities.Rental], customers CRUD[entities.Customer], vehicles CRUD[entities.Vehicle]) Resource[entities.Rental] {
	return Resource[entities.Rental]{
		Name:     ResourceRentals,
		Title:    "Rentas",
		Singular: "Renta",
		Fields: []Field{
			{Name: "clienteId", Label: "Cliente", Type: FieldSelect, Required: true, Placeholder: "ID del cliente"},
			{Name: "carroId", Label: "Vehículo", Type: FieldSelect, Required: true, Placeholder: "ID del vehículo"},
			{Name: "fechaInicio", Label: "Fecha de Inicio", Type: FieldDate, Required: true},
			{Name: "fechaFin", Label: "Fecha de Fin", Type: FieldDate, Required: true},
			{Name: "costo", Label: "Costo", Type: FieldNumber, Required: true, Min: "0", Step: "0.01", Placeholder: "0.00"},
		},
		Columns: []string{"Cliente", "Vehículo", "Inicio", "Fin", "Duración", "Costo"},
		Repo:    repo,
		Lookups: map[string]Lookup{
			"clienteId": customerOptions(customers),
			"carroId":   vehicleOptions(vehicles),
		},
		NewDraft: func(s entities.Session) Draft {
			return Draft{"clienteId": s.UserID, "carroId": "", "fechaInicio": "", "fechaFin": "", "costo": ""}
		},
		ToDraft: func(r entities.Rental) Draft {
			cliente, _ := r.ClienteID.Resolve()
			carro, _ := r.CarroID.Resolve()
			return Draft{
				"clienteId":   cliente,
				"carroId":     carro,
				"fechaInicio": utils.DateInput(r.FechaInicio),
				"fechaFin":    utils.DateInput(r.FechaFin),
				"costo":       r.Costo.String(),
			}
		},
		FromDraft: func(d Draft) (entities.Rental, error) {
			costo, err := strconv.ParseFloat(strings.TrimSpace(d.Get("costo")), 64)
			if err != nil || costo < 0 {
				return entities.Rental{}, apperrors.NewValidationError("costo", "El costo debe ser un número positivo")
			}
			return entities.Rental{
				ClienteID:   entities.RefFromID(d.Get("clienteId")),
				CarroID:     entities.RefFromID(d.Get("carroId")),
				FechaInicio: d.Get("fechaInicio"),
				FechaFin:    d.Get("fechaFin"),
				Costo:       entities.Amount(costo),
			}, nil
		},
		Row: func(r entities.Rental) []string {
			duracion := "-"
			if days, ok := utils.RentalDays(r.FechaInicio, r.FechaFin); ok {
				duracion = fmt.Sprintf("%d días", days)
			}
			return []string{
				refLabel(r.ClienteID),
				refLabel(r.CarroID),
				utils.FormatDate(r.FechaInicio),
				utils.FormatDate(r.FechaFin),
				duracion,
				"$" + r.Costo.String(),
			}
		},
	}
}

func refLabel(r entities.Ref) string {
	if id, ok := r.Resolve(); ok {
		return utils.ShortID(id)
	}
	return entities.NoRefPlaceholder
}

func customerOptions(repo CRUD[entities.Customer]) Lookup {
	return func(ctx context.Context, token string) ([]Option, error) {
		items, err := repo.List(ctx, token)
		if err != nil {
			return nil, err
		}
		opts := make([]Option, 0, len(items))
		for _, c := range items {
			opts = append(opts, Option{Value: c.ID, Label: c.FullName()})
		}
		return opts, nil
	}
}

func vehicleOptions(repo CRUD[entities.Vehicle]) Lookup {
	return func(ctx context.Context, token string) ([]Option, error) {
		items, err := repo.List(ctx, token)
		if err != nil {
			return nil, err
		}
		opts := make([]Option, 0, len(items))
		for _, v := range items {
			label := v.Label()
			if !v.IsAvailable() {
				label += " - no disponible"
			}
			opts = append(opts, Option{Value: v.ID, Label: label})
		}
		return opts, nil
	}
}
