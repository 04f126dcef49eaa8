package attendance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/config"
	"sigea-portal-svc/src/internal/middleware"
	"sigea-portal-svc/src/internal/models"
	"sigea-portal-svc/src/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	messages []models.ActivityMessage
}

func (p *recordingPublisher) Publish(message models.ActivityMessage) error {
	p.messages = append(p.messages, message)
	return nil
}

type backendCounters struct {
	dashboard atomic.Int32
	bulk      atomic.Int32
}

func newBackend(t *testing.T, bulkStatus int) (*clients.SigeaClient, *backendCounters) {
	t.Helper()
	counters := &backendCounters{}

	mux := http.NewServeMux()
	mux.HandleFunc("/asistencias/dashboard", func(w http.ResponseWriter, r *http.Request) {
		counters.dashboard.Add(1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"extraData":[{"actividadId":5,"titulo":"Taller","sesionId":9,
			"participantes":[{"inscripcionId":1,"nombre":"Ana","email":"ana@uni.edu","asistio":true},
			{"inscripcionId":2,"nombre":"Beto","email":"beto@uni.edu"}]}]}`))
	})
	mux.HandleFunc("/asistencias/actividades/5/bulk", func(w http.ResponseWriter, r *http.Request) {
		counters.bulk.Add(1)
		w.WriteHeader(bulkStatus)
		if bulkStatus >= 400 {
			_, _ = w.Write([]byte(`{"message":"Actividad finalizada"}`))
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Configuration{Backend: config.BackendSettings{URL: srv.URL, Timeout: 2}}
	return clients.NewSigeaClient(cfg), counters
}

func newRouter(backend Backend, publisher clients.Publisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := middleware.NewAuthMiddleware(session.NewMemoryStore())
	h := NewHandler(backend, publisher)

	r := gin.New()
	r.Use(middleware.BrowserSession(&config.SessionSettings{CookieName: "sid"}), auth.LoadSession())
	group := r.Group("/asistencias", auth.RequireAuth())
	group.GET("/dashboard", h.GetDashboard)
	group.PUT("/actividades/:id", h.SaveAttendance)
	group.POST("", h.MarkAttendance)
	return r
}

func TestGetDashboardEndpoint(t *testing.T) {
	client, counters := newBackend(t, http.StatusOK)
	r := newRouter(client, &recordingPublisher{})

	req := httptest.NewRequest(http.MethodGet, "/asistencias/dashboard", nil)
	req.Header.Set("Authorization", "Bearer tok")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int32(1), counters.dashboard.Load())

	var body struct {
		Data State `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Data.Activities, 1)
	assert.Equal(t, "5", body.Data.Activities[0].ID)
	assert.Equal(t, "9", body.Data.Activities[0].SessionID)
	assert.True(t, body.Data.Activities[0].Participants[0].Present)
	assert.False(t, body.Data.Activities[0].Participants[1].Present)
}

func TestGetDashboardRequiresSession(t *testing.T) {
	client, counters := newBackend(t, http.StatusOK)
	r := newRouter(client, &recordingPublisher{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/asistencias/dashboard", nil))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, int32(0), counters.dashboard.Load())
}

func TestSaveAttendanceEndpointRefetchesOnce(t *testing.T) {
	client, counters := newBackend(t, http.StatusOK)
	publisher := &recordingPublisher{}
	r := newRouter(client, publisher)

	payload := []byte(`{"participants":[{"enrollmentId":"1","present":true},{"enrollmentId":"2"}]}`)
	req := httptest.NewRequest(http.MethodPut, "/asistencias/actividades/5", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int32(1), counters.bulk.Load())
	assert.Equal(t, int32(1), counters.dashboard.Load())

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, models.ActionAttendanceSaved, publisher.messages[0].Action)
	assert.Equal(t, "5", publisher.messages[0].Metadata["activity_id"])
}

func TestSaveAttendanceEndpointReportsBackendMessage(t *testing.T) {
	client, counters := newBackend(t, http.StatusUnprocessableEntity)
	publisher := &recordingPublisher{}
	r := newRouter(client, publisher)

	payload := []byte(`{"participants":[{"enrollmentId":"1","present":true}]}`)
	req := httptest.NewRequest(http.MethodPut, "/asistencias/actividades/5", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer tok")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.JSONEq(t, `{"success":false,"message":"Actividad finalizada"}`, resp.Body.String())
	assert.Equal(t, int32(0), counters.dashboard.Load())
	assert.Empty(t, publisher.messages)
}

func TestSaveAttendanceEndpointRejectsBadPayload(t *testing.T) {
	client, counters := newBackend(t, http.StatusOK)
	r := newRouter(client, &recordingPublisher{})

	req := httptest.NewRequest(http.MethodPut, "/asistencias/actividades/5", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", "Bearer tok")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, int32(0), counters.bulk.Load())
}

func TestMarkAttendanceEndpointValidates(t *testing.T) {
	backend := &fakeBackend{}
	r := newRouter(backend, &recordingPublisher{})

	req := httptest.NewRequest(http.MethodPost, "/asistencias", bytes.NewReader([]byte(`{"sessionId":"9","enrollmentId":"1"}`)))
	req.Header.Set("Authorization", "Bearer tok")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Nil(t, backend.marked)
}

func TestMarkAttendanceEndpoint(t *testing.T) {
	backend := &fakeBackend{}
	publisher := &recordingPublisher{}
	r := newRouter(backend, publisher)

	req := httptest.NewRequest(http.MethodPost, "/asistencias", bytes.NewReader([]byte(`{"sessionId":"9","enrollmentId":"1","present":false}`)))
	req.Header.Set("Authorization", "Bearer tok")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, backend.marked)
	assert.False(t, backend.marked.Asistio)
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, models.ActionAttendanceMark, publisher.messages[0].Action)
}
