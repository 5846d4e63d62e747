package jobs

type JobType string

const (
	JobSendContactAck JobType = "send_contact_ack"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobSendContactAck:
		return true
	default:
		return false
	}
}
