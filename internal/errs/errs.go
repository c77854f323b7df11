// Package errs defines the surface-stable error-kind taxonomy shared by
// every layer of the daemon. A Kind is what crosses the command bridge to
// the frontend as {code, message}; it is deliberately not tied to any one
// Go error type so internal errors can be wrapped freely.
package errs

import "fmt"

type Kind string

const (
	Network          Kind = "Network"
	Clipboard        Kind = "Clipboard"
	Pairing          Kind = "Pairing"
	Encryption       Kind = "Encryption"
	Storage          Kind = "Storage"
	Config           Kind = "Config"
	Serialization    Kind = "Serialization"
	IO               Kind = "Io"
	ChannelSend      Kind = "ChannelSend"
	ChannelReceive   Kind = "ChannelReceive"
	PeerNotFound     Kind = "PeerNotFound"
	AlreadyPaired    Kind = "AlreadyPaired"
	InvalidPin       Kind = "InvalidPin"
	PairingTimeout   Kind = "PairingTimeout"
	NotInitialized   Kind = "NotInitialized"
	VaultLocked      Kind = "VaultLocked"
	NoPeersAvailable Kind = "NoPeersAvailable"
	InvalidInput     Kind = "InvalidInput"
)

// Error is the typed error carried across package boundaries and serialized
// to the frontend as {"code": kind, "message": message}.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Code and Text implement the {code, message} serialization contract used by
// the command bridge.
func (e *Error) Code() string { return string(e.Kind) }
func (e *Error) Text() string { return e.Message }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: cause.Error(), cause: cause}
}

func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// As reports whether err (or something it wraps) is an *Error of the given
// kind.
func As(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ee, ok := err.(*Error); ok {
			e = ee
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
