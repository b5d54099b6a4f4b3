// Package auth signs users in with email/password or Google and issues the
// bearer tokens that identify them afterwards.
package auth

import (
	"errors"
	"fmt"
)

// Code identifies an authentication failure.
type Code string

const (
	CodeUserNotFound       Code = "auth/user-not-found"
	CodeWrongPassword      Code = "auth/wrong-password"
	CodeInvalidCredential  Code = "auth/invalid-credential"
	CodeEmailAlreadyInUse  Code = "auth/email-already-in-use"
	CodeWeakPassword       Code = "auth/weak-password"
	CodeInvalidEmail       Code = "auth/invalid-email"
	CodeTooManyRequests    Code = "auth/too-many-requests"
	CodePopupClosedByUser  Code = "auth/popup-closed-by-user"
	CodeNetworkRequestFail Code = "auth/network-request-failed"
)

// GenericMessage is shown for any failure without a dedicated message.
const GenericMessage = "An error occurred. Please try again."

var messages = map[Code]string{
	CodeUserNotFound:       "No account found with this email.",
	CodeWrongPassword:      "Incorrect password. Please try again.",
	CodeInvalidCredential:  "Invalid email or password.",
	CodeEmailAlreadyInUse:  "An account already exists with this email.",
	CodeWeakPassword:       "Password should be at least 6 characters.",
	CodeInvalidEmail:       "Please enter a valid email address.",
	CodeTooManyRequests:    "Too many failed attempts. Please try again later.",
	CodePopupClosedByUser:  "Sign-in popup was closed. Please try again.",
	CodeNetworkRequestFail: "Network error. Please check your connection.",
}

// Error is a coded authentication failure.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf returns the code carried by err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Message maps err to the text shown to the user.
func Message(err error) string {
	if m, ok := messages[CodeOf(err)]; ok {
		return m
	}
	return GenericMessage
}
