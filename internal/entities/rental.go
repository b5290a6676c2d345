package entities

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type Rental struct {
	ID          string `json:"_id,omitempty"`
	ClienteID   Ref    `json:"clienteId"`
	CarroID     Ref    `json:"carroId"`
	FechaInicio string `json:"fechaInicio"`
	FechaFin    string `json:"fechaFin"`
	Costo       Amount `json:"costo"`
}

func (r Rental) EntityID() string { return r.ID }

func (r Rental) WithID(id string) Rental {
	r.ID = id
	return r
}

// Amount is a money value that also decodes from a numeric string.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}
