package gatt

import "errors"

// An Error is a failure reported back to the host stack. Name is the
// D-Bus error name the host receives; errors.Is compares by Name, so a
// wrapped or re-worded error still matches its sentinel.
type Error struct {
	Name    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

// Is reports whether target carries the same D-Bus error name.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Name == e.Name
}

// DBusError lets godbus send e as a method error reply.
func (e *Error) DBusError() (string, []interface{}) {
	if e.Message == "" {
		return e.Name, nil
	}
	return e.Name, []interface{}{e.Message}
}

// Errors understood by BlueZ for attribute and agent method replies.
var (
	ErrInvalidArguments   = &Error{Name: "org.bluez.Error.InvalidArguments"}
	ErrNotSupported       = &Error{Name: "org.bluez.Error.NotSupported"}
	ErrNotPermitted       = &Error{Name: "org.bluez.Error.NotPermitted"}
	ErrNotAuthorized      = &Error{Name: "org.bluez.Error.NotAuthorized"}
	ErrInvalidOffset      = &Error{Name: "org.bluez.Error.InvalidOffset"}
	ErrInvalidValueLength = &Error{Name: "org.bluez.Error.InvalidValueLength"}
	ErrRejected           = &Error{Name: "org.bluez.Error.Rejected"}
	ErrFailed             = &Error{Name: "org.bluez.Error.Failed"}
)

// Failed returns an org.bluez.Error.Failed carrying reason.
func Failed(reason string) error {
	return &Error{Name: ErrFailed.Name, Message: reason}
}

// Errors raised by the peripheral itself.
var (
	ErrNoAdapter           = errors.New("gatt: no adapter with GattManager1 and LEAdvertisingManager1 found")
	ErrLoopClosed          = errors.New("gatt: event loop closed")
	ErrAdvertisementActive = errors.New("gatt: an advertisement is already registered or pending")
	ErrSealed              = errors.New("gatt: application already exported")
)

// AsError converts err into an *Error the host stack understands.
// Errors that are not already *Error become org.bluez.Error.Failed.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Name: ErrFailed.Name, Message: err.Error()}
}
