package dispatch

import (
	"errors"

	"bridge-rpc/objects"
)

// Per-request errors are reported to the peer and leave the connection and
// all other in-flight requests untouched. Registration errors abort only the
// service being registered.
var (
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrUnknownFunction       = errors.New("unknown function")
	ErrUnknownMethod         = errors.New("unknown method")
	ErrUnknownInterface      = errors.New("unknown interface")
	ErrUnknownMessageType    = errors.New("unknown message type")
	ErrMarshal               = errors.New("marshal error")
	ErrTypeContract          = errors.New("type contract violation")

	// Object and subscription errors originate in the objects package.
	ErrUnknownObject       = objects.ErrUnknownObject
	ErrUnknownSubscription = objects.ErrUnknownSubscription
)
