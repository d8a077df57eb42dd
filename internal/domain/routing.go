package domain

// Downstream business services an intent can route to.
const (
	ServiceTicketing   = "ticketing-service"
	ServiceReservation = "reservation-service"
	ServiceKnowledge   = "knowledge-service"
	ServicePayment     = "payment-service"
	ServiceSupport     = "support-service"
)

// Invocation modes.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Invocation statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// MicroserviceResult is the uniform outcome of routing a decision to a
// downstream service, whether the service was reached remotely or simulated
// locally.
type MicroserviceResult struct {
	Service string         `json:"service"`
	Mode    string         `json:"mode"`
	Status  string         `json:"status"`
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload"`
}
