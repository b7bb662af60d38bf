package communication

import "context"

type SandCode string

const (
	CodeOK          SandCode = "OK"
	CodeBadRequest  SandCode = "BAD_REQUEST"
	CodeNotFound    SandCode = "NOT_FOUND"
	CodeConflict    SandCode = "CONFLICT"
	CodeInternal    SandCode = "INTERNAL"
	CodeUnavailable SandCode = "UNAVAILABLE"
)

type Message struct {
	From    string
	Type    string
	Payload any
}

type Response struct {
	Code    SandCode
	Body    []byte
	Headers map[string]string
}

type MessageHandler func(msg Message) (*Response, error)

type Communicator interface {
	Start(handler MessageHandler) error
	Stop() error
	Send(ctx context.Context, to string, msg Message) (*Response, error)
	Address() string
	RegisterPayloadType(messageType string, payload any)
}
