package entities

type Customer struct {
	ID               string `json:"_id,omitempty"`
	Nombre           string `json:"nombre"`
	Apellido         string `json:"apellido"`
	Email            string `json:"email"`
	Telefono         string `json:"telefono"`
	LicenciaConducir string `json:"licenciaConducir"`
}

func (c Customer) EntityID() string { return c.ID }

func (c Customer) WithID(id string) Customer {
	c.ID = id
	return c
}

// FullName joins nombre and apellido.
func (c Customer) FullName() string {
	switch {
	case c.Nombre == "":
		return c.Apellido
	case c.Apellido == "":
		return c.Nombre
	}
	return c.Nombre + " " + c.Apellido
}
