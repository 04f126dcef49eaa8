package payment

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	resp  *models.PaymentResponse
	err   error
	calls int
	got   models.PaymentRequest
	token string
}

func (f *fakeBackend) CreatePayment(_ context.Context, token string, req models.PaymentRequest) (*models.PaymentResponse, error) {
	f.calls++
	f.got = req
	f.token = token
	return f.resp, f.err
}

func validForm() Form {
	return Form{ActivityID: "5", EnrollmentID: "77", Amount: 150, Method: "tarjeta"}
}

func TestValidateRejectsIncompleteForm(t *testing.T) {
	err := Validate(Form{Amount: -1, Method: "BITCOIN"})

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, map[string]string{
		"ActivityID":   "required",
		"EnrollmentID": "required",
		"Amount":       "gt",
		"Method":       "oneof",
	}, vErr.Fields)
}

func TestValidateAcceptsLowercaseMethod(t *testing.T) {
	assert.NoError(t, Validate(validForm()))
}

func TestCreateDoesNotCallBackendOnInvalidForm(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, "https://pay.sigea.test/checkout")

	_, err := svc.Create(context.Background(), "tok", Form{})

	assert.Error(t, err)
	assert.Equal(t, 0, backend.calls)
	assert.Contains(t, UserMessage(err), "4 campo(s)")
}

func TestCreateUsesBackendURL(t *testing.T) {
	backend := &fakeBackend{resp: &models.PaymentResponse{PagoID: "9", Referencia: "REF-9", Estado: "PENDIENTE", URL: "https://gateway/checkout/9"}}
	svc := NewService(backend, "https://pay.sigea.test/checkout")

	result, err := svc.Create(context.Background(), "tok", validForm())
	require.NoError(t, err)

	assert.Equal(t, "https://gateway/checkout/9", result.RedirectURL)
	assert.Equal(t, "9", result.PaymentID)
	assert.Equal(t, "PENDIENTE", result.Status)
	assert.Equal(t, "tok", backend.token)
	assert.Equal(t, models.PaymentRequest{ActividadID: "5", InscripcionID: "77", Monto: 150, Metodo: "TARJETA"}, backend.got)
}

func TestCreateBuildsConfiguredURL(t *testing.T) {
	backend := &fakeBackend{resp: &models.PaymentResponse{PagoID: "9", Referencia: "REF 9"}}
	svc := NewService(backend, "https://pay.sigea.test/checkout?lang=es")

	result, err := svc.Create(context.Background(), "tok", validForm())
	require.NoError(t, err)

	u, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "pay.sigea.test", u.Host)
	assert.Equal(t, "/checkout", u.Path)
	assert.Equal(t, "REF 9", u.Query().Get("referencia"))
	assert.Equal(t, "9", u.Query().Get("pago"))
	assert.Equal(t, "es", u.Query().Get("lang"))
}

func TestCreateWithoutAnyURL(t *testing.T) {
	backend := &fakeBackend{resp: &models.PaymentResponse{PagoID: "9", Referencia: "REF-9"}}
	result, err := NewService(backend, "").Create(context.Background(), "tok", validForm())

	require.NoError(t, err)
	assert.Empty(t, result.RedirectURL)
}

func TestCreateBackendError(t *testing.T) {
	backend := &fakeBackend{err: &clients.APIError{StatusCode: 409, Message: "La inscripción ya está pagada"}}

	_, err := NewService(backend, "").Create(context.Background(), "tok", validForm())

	require.Error(t, err)
	assert.Equal(t, "La inscripción ya está pagada", UserMessage(err))
	assert.Equal(t, msgCreateFailed, UserMessage(errors.New("timeout")))
}
