package models

import "time"

// ActivityMessage is published to the activity exchange for every
// session or attendance event the portal relays.
type ActivityMessage struct {
	UserID      string            `json:"user_id"`
	SessionID   string            `json:"session_id"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	IPAddress   string            `json:"ip_address,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Activity action constants
const (
	ActionLogin           = "login"
	ActionLogout          = "logout"
	ActionAttendanceSaved = "attendance_saved"
	ActionAttendanceMark  = "attendance_mark"
	ActionPaymentCreated  = "payment_created"
)

// Service name constants
const (
	ServicePortalAuth       = "portal.handler.auth"
	ServicePortalAttendance = "portal.handler.attendance"
	ServicePortalPayment    = "portal.handler.payment"
)
