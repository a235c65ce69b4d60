package fetch

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes for a failed attempt.
var (
	ErrEmptyBody  = errors.New("fetch: empty response body")
	ErrBadStatus  = errors.New("fetch: unexpected status")
	ErrBadPayload = errors.New("fetch: undecodable payload")
)

// failureClass decides how long to wait before repeating a request.
type failureClass int

const (
	classEmpty failureClass = iota // falsy response: transport error, non-2xx, empty or bad body
	classTLS                       // certificate or handshake failure
)

func (c failureClass) String() string {
	if c == classTLS {
		return "tls"
	}
	return "empty"
}

// attemptError records why one attempt failed.
type attemptError struct {
	class  failureClass
	status int
	err    error
}

func (e *attemptError) Error() string {
	if e.status != 0 {
		return fmt.Sprintf("%s failure (status %d): %v", e.class, e.status, e.err)
	}
	return fmt.Sprintf("%s failure: %v", e.class, e.err)
}

func (e *attemptError) Unwrap() error { return e.err }

// classify maps a transport error onto a failure class.
func classify(err error) failureClass {
	var (
		recordErr   tls.RecordHeaderError
		verifyErr   *tls.CertificateVerificationError
		alertErr    tls.AlertError
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &recordErr),
		errors.As(err, &verifyErr),
		errors.As(err, &alertErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostErr),
		errors.As(err, &invalidErr):
		return classTLS
	}

	// Handshake failures surface from net/http as plain strings.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:") {
		return classTLS
	}
	return classEmpty
}
