package models

type UserEvent struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
	Rating  *int   `json:"rating,omitempty"`
	Ticket  string `json:"ticket,omitempty"`
	Status  string `json:"status"` // PENDING, APPROVED, REJECTED
}

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// TicketClaims is the payload carried inside an issued ticket token.
// Ref is a short human-readable handle for check-in staff; the IDs are
// what the system trusts after the tag verifies.
type TicketClaims struct {
	UserEventID string `json:"user_event_id"`
	UserID      string `json:"user_id"`
	EventID     string `json:"event_id"`
	Ref         string `json:"ref"`
	IssuedAt    int64  `json:"issued_at"`
}
