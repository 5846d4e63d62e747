package jobs

// SendContactAckPayload carries what the worker needs to acknowledge a
// contact-form message. Kept small and ID-based; the message itself stays
// in the store.
type SendContactAckPayload struct {
	ContactID string `json:"contactId"`
	Email     string `json:"email"`
	Fullname  string `json:"fullname"`
	Subject   string `json:"subject"`
	RequestID string `json:"requestId,omitempty"` // correlation
}
