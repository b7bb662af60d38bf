package server

import (
	"reflect"

	"github.com/casfs/casfs/internal/communication"
)

type Server interface {
	Start() error
	Stop() error
}

type TypedHandler struct {
	Handler     func(msg communication.Message) (*communication.Response, error)
	PayloadType reflect.Type
}
