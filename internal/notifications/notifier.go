package notifications

import "context"

type SendContactAckInput struct {
	ContactID string
	Email     string
	Fullname  string
	Subject   string
}

// Notifier delivers outbound notifications. The only implementation today
// logs them; a provider-backed one slots in behind the same interface.
type Notifier interface {
	SendContactAck(ctx context.Context, input SendContactAckInput) error
}
