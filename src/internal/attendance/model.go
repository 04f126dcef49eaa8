package attendance

import "sigea-portal-svc/src/internal/models"

// Activity is one dashboard row reshaped for the UI.
type Activity struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Start          string        `json:"start"`
	End            string        `json:"end"`
	Modality       string        `json:"modality"`
	LastUpdate     string        `json:"lastUpdate"`
	TotalEnrolled  int           `json:"totalEnrolled"`
	Attendees      int           `json:"attendees"`
	AttendanceRate float64       `json:"attendanceRate"`
	SessionID      string        `json:"sessionId"`
	Participants   []Participant `json:"participants"`
}

// Participant is the attendance record of one enrollment.
type Participant struct {
	EnrollmentID   string `json:"enrollmentId"`
	EnrollmentDate string `json:"enrollmentDate"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Present        bool   `json:"present"`
}

// State is a snapshot of a Dashboard.
type State struct {
	Activities []Activity `json:"activities"`
	Loading    bool       `json:"loading"`
	Error      string     `json:"error,omitempty"`
}

// clone copies the activity rows and their participants so callers can
// edit a snapshot without touching the dashboard.
func (s State) clone() State {
	activities := make([]Activity, len(s.Activities))
	for i, a := range s.Activities {
		a.Participants = append([]Participant(nil), a.Participants...)
		if a.Participants == nil {
			a.Participants = []Participant{}
		}
		activities[i] = a
	}
	s.Activities = activities
	return s
}

// SaveResult reports the outcome of a write for inline display.
type SaveResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// toActivities keeps backend order for rows and participants. A nil input
// yields an empty, non-nil slice.
func toActivities(raw []models.DashboardActivity) []Activity {
	activities := make([]Activity, 0, len(raw))
	for _, a := range raw {
		participants := make([]Participant, 0, len(a.Participantes))
		for _, p := range a.Participantes {
			participants = append(participants, Participant{
				EnrollmentID:   p.InscripcionID.String(),
				EnrollmentDate: p.FechaInscripcion,
				Name:           p.Nombre,
				Email:          p.Email,
				Present:        p.Asistio != nil && *p.Asistio,
			})
		}

		activities = append(activities, Activity{
			ID:             a.ActividadID.String(),
			Title:          a.Titulo,
			Start:          a.FechaInicio,
			End:            a.FechaFin,
			Modality:       a.Modalidad,
			LastUpdate:     a.UltimaActualizacion,
			TotalEnrolled:  a.TotalInscritos,
			Attendees:      a.TotalAsistentes,
			AttendanceRate: a.PorcentajeAsistencia,
			SessionID:      a.SesionID.String(),
			Participants:   participants,
		})
	}
	return activities
}

func toMarks(participants []Participant) []models.AttendanceMark {
	marks := make([]models.AttendanceMark, len(participants))
	for i, p := range participants {
		marks[i] = models.AttendanceMark{InscripcionID: p.EnrollmentID, Asistio: p.Present}
	}
	return marks
}
