package jobs

import (
	"errors"
	"testing"
)

func TestEncodeDecode_SendContactAck(t *testing.T) {
	payload := SendContactAckPayload{
		ContactID: "contact-123",
		Email:     "jane@example.com",
		Fullname:  "Jane Doe",
		Subject:   "Order question",
	}

	b, err := EncodePayload(JobSendContactAck, payload)
	if err != nil {
		t.Fatalf("EncodePayload error: %v", err)
	}

	j, err := NewJob(JobSendContactAck, b)
	if err != nil {
		t.Fatalf("NewJob error: %v", err)
	}

	decoded, err := DecodePayload(j)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(SendContactAckPayload)
	if !ok {
		t.Fatalf("expected SendContactAckPayload, got %T", decoded)
	}

	if p.ContactID != payload.ContactID {
		t.Fatalf("expected contactId %s, got %s", payload.ContactID, p.ContactID)
	}

	if p.Email != payload.Email {
		t.Fatalf("expected email %s, got %s", payload.Email, p.Email)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobSendContactAck, struct{ Foo string }{Foo: "bar"})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestEncodePayload_InvalidType(t *testing.T) {
	_, err := EncodePayload(JobType("unknown"), SendContactAckPayload{})
	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestDecodePayload_EmptyPayload(t *testing.T) {
	j := Job{Type: JobSendContactAck}

	_, err := DecodePayload(j)
	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
}

func TestNewJob_InvalidType(t *testing.T) {
	_, err := NewJob(JobType("bogus"), []byte(`{}`))
	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}
