package jobs

import (
	"encoding/json"
	"fmt"
)

// EncodePayload marshals a typed payload after checking it matches the job
// type. Catching a mismatch here beats a confused worker later.
func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobSendContactAck:
		_, ok := payload.(SendContactAckPayload)

		if !ok {
			_, ok2 := payload.(*SendContactAckPayload)

			if !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals job.Payload into the correct typed payload struct.
func DecodePayload(j Job) (any, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}

	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch j.Type {
	case JobSendContactAck:
		var p SendContactAckPayload

		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}

		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}
