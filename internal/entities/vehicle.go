package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Vehicle struct {
	ID        string `json:"_id,omitempty"`
	Marca     string `json:"marca"`
	Modelo    string `json:"modelo"`
	Anio      Year   `json:"año"`
	Matricula string `json:"matricula"`
	// Disponible is nil when the server omitted it; that reads as available.
	Disponible *bool `json:"disponible,omitempty"`
}

func (v Vehicle) EntityID() string { return v.ID }

func (v Vehicle) WithID(id string) Vehicle {
	v.ID = id
	return v
}

func (v Vehicle) IsAvailable() bool {
	return v.Disponible == nil || *v.Disponible
}

// Label is the text used in selection controls.
func (v Vehicle) Label() string {
	label := fmt.Sprintf("%s %s", v.Marca, v.Modelo)
	if v.Matricula != "" {
		label += " (" + v.Matricula + ")"
	}
	return label
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Year is a model year that also decodes from a numeric string.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*y = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*y = Year(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = Year(n)
	return nil
}

func (y Year) String() string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(int(y))
}
