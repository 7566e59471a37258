package core

import "errors"

var (
	// Pin ownership
	ErrInvalidPin  = errors.New("invalid pin number")
	ErrInvalidPort = errors.New("invalid port identifier")
	ErrPinInUse    = errors.New("pin already claimed")
	ErrPinConsumed = errors.New("pin handle no longer owns its pin")

	// Port construction
	ErrWidth        = errors.New("out port width must be 2..8 pins")
	ErrPortMismatch = errors.New("out port pins belong to different ports")
	ErrDuplicatePin = errors.New("out port pin bound twice")

	// Command layer
	ErrUnknownPort = errors.New("unknown GPIO port")
	ErrOIDInUse    = errors.New("oid already configured")
	ErrUnknownOID  = errors.New("oid not configured")
)
