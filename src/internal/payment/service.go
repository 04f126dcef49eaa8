package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const msgCreateFailed = "No se pudo iniciar el pago"

var validate = validator.New()

// Supported payment methods.
const (
	MethodCard     = "TARJETA"
	MethodTransfer = "TRANSFERENCIA"
	MethodCash     = "EFECTIVO"
)

// Form is the payment initiation form as the portal receives it.
type Form struct {
	ActivityID   string  `json:"activityId" validate:"required"`
	EnrollmentID string  `json:"enrollmentId" validate:"required"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	Method       string  `json:"method" validate:"required,oneof=TARJETA TRANSFERENCIA EFECTIVO"`
}

// Result is what the portal needs to send the user on to pay.
type Result struct {
	PaymentID   string `json:"paymentId"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirectUrl"`
}

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	return fmt.Sprintf("invalid payment form: %s", strings.Join(names, ", "))
}

// Backend is the payment part of the SIGEA client.
type Backend interface {
	CreatePayment(ctx context.Context, token string, req models.PaymentRequest) (*models.PaymentResponse, error)
}

type Service interface {
	Create(ctx context.Context, token string, form Form) (*Result, error)
}

type paymentService struct {
	backend    Backend
	paymentURL string
}

func NewService(backend Backend, paymentURL string) Service {
	return &paymentService{backend: backend, paymentURL: paymentURL}
}

// Validate checks a form without touching the network.
func Validate(form Form) error {
	form.Method = strings.ToUpper(strings.TrimSpace(form.Method))
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

func (s *paymentService) Create(ctx context.Context, token string, form Form) (*Result, error) {
	if err := Validate(form); err != nil {
		return nil, err
	}

	resp, err := s.backend.CreatePayment(ctx, token, models.PaymentRequest{
		ActividadID:   form.ActivityID,
		InscripcionID: form.EnrollmentID,
		Monto:         form.Amount,
		Metodo:        strings.ToUpper(strings.TrimSpace(form.Method)),
	})
	if err != nil {
		logrus.WithError(err).WithField("enrollment_id", form.EnrollmentID).Error("Failed to create payment")
		return nil, err
	}

	result := &Result{
		PaymentID: resp.PagoID.String(),
		Reference: resp.Referencia,
		Status:    resp.Estado,
	}
	result.RedirectURL = s.redirectURL(resp)

	logrus.WithFields(logrus.Fields{
		"payment_id": result.PaymentID,
		"reference":  result.Reference,
	}).Info("Payment created")

	return result, nil
}

// redirectURL prefers the URL the backend returned and otherwise appends
// the reference to the configured checkout URL.
func (s *paymentService) redirectURL(resp *models.PaymentResponse) string {
	if resp.URL != "" {
		return resp.URL
	}
	if s.paymentURL == "" {
		return ""
	}

	u, err := url.Parse(s.paymentURL)
	if err != nil {
		logrus.WithError(err).Warn("Invalid payment URL in configuration")
		return ""
	}

	q := u.Query()
	q.Set("referencia", resp.Referencia)
	if resp.PagoID != "" {
		q.Set("pago", resp.PagoID.String())
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// UserMessage maps a Create error to a message for the form.
func UserMessage(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "Revise los datos del formulario de pago (" + strconv.Itoa(len(vErr.Fields)) + " campo(s) inválido(s))"
	}
	return clients.UserMessage(err, msgCreateFailed)
}
