package queue

import (
	"bytes"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	metadataPhoneID     = "phone_id"
	metadataDestination = "destination"
)

var errMissingDestination = errors.New("forward job has no destination")

// ForwardJob is one event body waiting to be delivered to an account destination.
type ForwardJob struct {
	PhoneID     string
	Destination string
	Body        []byte
}

// NewForwardMessage wraps job in a watermill message. The body travels as the
// payload so the destination receives the exact bytes the platform sent.
func NewForwardMessage(job ForwardJob) (*message.Message, error) {
	if job.Destination == "" {
		return nil, errMissingDestination
	}
	msg := message.NewMessage(uuid.NewString(), bytes.Clone(job.Body))
	msg.Metadata.Set(metadataPhoneID, job.PhoneID)
	msg.Metadata.Set(metadataDestination, job.Destination)
	return msg, nil
}

// DecodeForwardJob reads the job carried by msg.
func DecodeForwardJob(msg *message.Message) (ForwardJob, error) {
	job := ForwardJob{
		PhoneID:     msg.Metadata.Get(metadataPhoneID),
		Destination: msg.Metadata.Get(metadataDestination),
		Body:        msg.Payload,
	}
	if job.Destination == "" {
		return ForwardJob{}, errMissingDestination
	}
	return job, nil
}
