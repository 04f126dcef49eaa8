package models

import (
	"encoding/json"
)

// Envelope is the response wrapper every SIGEA backend endpoint returns.
type Envelope[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExtraData T      `json:"extraData"`
}

// DashboardActivity is one row of the attendance dashboard aggregate as the
// backend sends it.
type DashboardActivity struct {
	ActividadID          ID                     `json:"actividadId"`
	Titulo               string                 `json:"titulo"`
	FechaInicio          string                 `json:"fechaInicio"`
	FechaFin             string                 `json:"fechaFin"`
	Modalidad            string                 `json:"modalidad"`
	UltimaActualizacion  string                 `json:"ultimaActualizacion"`
	TotalInscritos       int                    `json:"totalInscritos"`
	TotalAsistentes      int                    `json:"totalAsistentes"`
	PorcentajeAsistencia float64                `json:"porcentajeAsistencia"`
	SesionID             ID                     `json:"sesionId"`
	Participantes        []DashboardParticipant `json:"participantes"`
}

type DashboardParticipant struct {
	InscripcionID    ID     `json:"inscripcionId"`
	FechaInscripcion string `json:"fechaInscripcion"`
	Nombre           string `json:"nombre"`
	Email            string `json:"email"`
	Asistio          *bool  `json:"asistio"`
}

// AttendanceMark is the minimal pair the bulk attendance write accepts.
type AttendanceMark struct {
	InscripcionID string `json:"inscripcionId"`
	Asistio       bool   `json:"asistio"`
}

type AttendanceRequest struct {
	SesionID      string `json:"sesionId"`
	InscripcionID string `json:"inscripcionId"`
	Asistio       bool   `json:"asistio"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// CatalogActivity is an activity as listed by the public catalog.
type CatalogActivity struct {
	ID          ID               `json:"id"`
	Titulo      string           `json:"titulo"`
	Descripcion string           `json:"descripcion,omitempty"`
	Modalidad   string           `json:"modalidad"`
	FechaInicio string           `json:"fechaInicio"`
	FechaFin    string           `json:"fechaFin"`
	Costo       float64          `json:"costo"`
	Cupos       int              `json:"cupos"`
	Sesiones    []CatalogSession `json:"sesiones,omitempty"`
}

type CatalogSession struct {
	ID          ID     `json:"id"`
	Titulo      string `json:"titulo"`
	FechaInicio string `json:"fechaInicio"`
	FechaFin    string `json:"fechaFin"`
	Lugar       string `json:"lugar,omitempty"`
}

type PaymentRequest struct {
	ActividadID   string  `json:"actividadId"`
	InscripcionID string  `json:"inscripcionId"`
	Monto         float64 `json:"monto"`
	Metodo        string  `json:"metodo"`
}

type PaymentResponse struct {
	PagoID     ID     `json:"pagoId"`
	Referencia string `json:"referencia"`
	Estado     string `json:"estado"`
	URL        string `json:"url,omitempty"`
}

// ID accepts identifiers the backend encodes either as JSON numbers or
// strings. It is always written back as a JSON string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}
