package attendance

import (
	"context"
	"strings"
	"sync"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	msgFetchFailed  = "No se pudo cargar el panel de asistencia"
	msgSaveFailed   = "No se pudo guardar la asistencia"
	msgSaved        = "Asistencia guardada correctamente"
	msgMarkFailed   = "No se pudo registrar la asistencia"
	msgMarked       = "Asistencia registrada"
	msgMissingInput = "Datos de asistencia incompletos"
)

// Backend is the part of the SIGEA client the dashboard uses.
type Backend interface {
	GetAttendanceDashboard(ctx context.Context, token string) (*models.Envelope[[]models.DashboardActivity], error)
	SaveAttendanceBulk(ctx context.Context, token, activityID string, marks []models.AttendanceMark) error
	MarkAttendance(ctx context.Context, token string, req models.AttendanceRequest) error
}

// Dashboard holds the attendance dashboard state of one consumer. Errors
// never escape its operations; they land in State.Error or in a SaveResult.
type Dashboard struct {
	backend Backend
	token   string

	mu    sync.RWMutex
	state State
}

func NewDashboard(backend Backend, token string) *Dashboard {
	return &Dashboard{
		backend: backend,
		token:   token,
		state:   State{Activities: []Activity{}},
	}
}

// State returns a snapshot of the current state.
func (d *Dashboard) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.clone()
}

// FetchDashboard loads the aggregate and replaces the activity list. On
// failure the previous list is kept and Error is set.
func (d *Dashboard) FetchDashboard(ctx context.Context) State {
	d.mu.Lock()
	d.state.Loading = true
	d.state.Error = ""
	d.mu.Unlock()

	envelope, err := d.backend.GetAttendanceDashboard(ctx, d.token)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Loading = false

	if err != nil {
		logrus.WithError(err).Error("Failed to fetch attendance dashboard")
		d.state.Error = clients.UserMessage(err, msgFetchFailed)
		return d.state.clone()
	}

	var raw []models.DashboardActivity
	if envelope != nil {
		raw = envelope.ExtraData
	}
	d.state.Activities = toActivities(raw)

	logrus.WithField("activities", len(d.state.Activities)).Debug("Attendance dashboard loaded")
	return d.state.clone()
}

// SaveAttendance submits every participant's mark for an activity in one
// bulk write, then refetches the whole dashboard so counts and rates come
// from the server.
func (d *Dashboard) SaveAttendance(ctx context.Context, activityID string, participants []Participant) SaveResult {
	if strings.TrimSpace(activityID) == "" {
		return SaveResult{Success: false, Message: msgMissingInput}
	}

	err := d.backend.SaveAttendanceBulk(ctx, d.token, activityID, toMarks(participants))
	if err != nil {
		logrus.WithError(err).WithField("activity_id", activityID).Error("Failed to save attendance")
		return SaveResult{Success: false, Message: clients.UserMessage(err, msgSaveFailed)}
	}

	logrus.WithFields(logrus.Fields{
		"activity_id":  activityID,
		"participants": len(participants),
	}).Info("Attendance saved")

	d.FetchDashboard(ctx)
	return SaveResult{Success: true, Message: msgSaved}
}

// MarkAttendance writes a single enrollment's attendance for a session.
func (d *Dashboard) MarkAttendance(ctx context.Context, sessionID, enrollmentID string, present bool) SaveResult {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(enrollmentID) == "" {
		return SaveResult{Success: false, Message: msgMissingInput}
	}

	err := d.backend.MarkAttendance(ctx, d.token, models.AttendanceRequest{
		SesionID:      sessionID,
		InscripcionID: enrollmentID,
		Asistio:       present,
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id":    sessionID,
			"enrollment_id": enrollmentID,
		}).Error("Failed to mark attendance")
		return SaveResult{Success: false, Message: clients.UserMessage(err, msgMarkFailed)}
	}

	return SaveResult{Success: true, Message: msgMarked}
}
