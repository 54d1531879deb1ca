package internal

import (
	"fmt"
	"strings"
)

// ErrorKind classifies the terminal outcome of a resolver or transfer call.
type ErrorKind int

const (
	KindFatal ErrorKind = iota
	KindNoModuleFound
	KindNetwork
	KindLoginFailed
	KindMaxWaitReached
	KindMaxTriesReached
	KindCaptchaFailed
	KindSystemFailure
	KindTemporarilyUnavailable
	KindNeedPermissions
	KindLinkDead
	KindPasswordRequired
)

// Process exit codes, one per error kind. ExitCodeMultiple is added to the
// first failing link's code when more than one link in a batch fails, so the
// aggregate stays distinguishable from any individual failure.
const (
	ExitCodeOK              = 0
	ExitCodeFatal           = 1
	ExitCodeNoModule        = 2
	ExitCodeNetwork         = 3
	ExitCodeLoginFailed     = 4
	ExitCodeMaxWaitReached  = 5
	ExitCodeMaxTriesReached = 6
	ExitCodeCaptcha         = 7
	ExitCodeSystem          = 8
	ExitCodeTempUnavailable = 10
	ExitCodeNeedPermissions = 12
	ExitCodeLinkDead        = 13
	ExitCodePassword        = 14
	ExitCodeMultiple        = 100
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindFatal:
		return "Fatal"
	case KindNoModuleFound:
		return "NoModuleFound"
	case KindNetwork:
		return "Network"
	case KindLoginFailed:
		return "LoginFailed"
	case KindMaxWaitReached:
		return "MaxWaitReached"
	case KindMaxTriesReached:
		return "MaxTriesReached"
	case KindCaptchaFailed:
		return "CaptchaFailed"
	case KindSystemFailure:
		return "SystemFailure"
	case KindTemporarilyUnavailable:
		return "TemporarilyUnavailable"
	case KindNeedPermissions:
		return "NeedPermissions"
	case KindLinkDead:
		return "LinkDead"
	case KindPasswordRequired:
		return "PasswordRequired"
	default:
		return "Unknown"
	}
}

// ExitCode maps an error kind to its process exit code.
func (k ErrorKind) ExitCode() int {
	switch k {
	case KindNoModuleFound:
		return ExitCodeNoModule
	case KindNetwork:
		return ExitCodeNetwork
	case KindLoginFailed:
		return ExitCodeLoginFailed
	case KindMaxWaitReached:
		return ExitCodeMaxWaitReached
	case KindMaxTriesReached:
		return ExitCodeMaxTriesReached
	case KindCaptchaFailed:
		return ExitCodeCaptcha
	case KindSystemFailure:
		return ExitCodeSystem
	case KindTemporarilyUnavailable:
		return ExitCodeTempUnavailable
	case KindNeedPermissions:
		return ExitCodeNeedPermissions
	case KindLinkDead:
		return ExitCodeLinkDead
	case KindPasswordRequired:
		return ExitCodePassword
	default:
		return ExitCodeFatal
	}
}

// HosterError represents a typed failure signaled by a resolver module or by
// the transfer engine while processing one link.
type HosterError struct {
	Kind       ErrorKind              `json:"kind"`
	Message    string                 `json:"message"`
	URL        string                 `json:"url,omitempty"`
	WaitHint   int                    `json:"wait_hint,omitempty"` // seconds, TemporarilyUnavailable only
	HTTPStatus int                    `json:"http_status,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *HosterError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("hoster error (%s)", e.Kind.String()))

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.WaitHint > 0 {
		parts = append(parts, fmt.Sprintf("retry hinted after %ds", e.WaitHint))
	}

	return strings.Join(parts, ": ")
}

// NewHosterError creates a new HosterError of the given kind.
func NewHosterError(kind ErrorKind, message string) *HosterError {
	return &HosterError{
		Kind:    kind,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WithURL attaches the link URL to the error (redacted in logs).
func (e *HosterError) WithURL(url string) *HosterError {
	e.URL = url
	return e
}

// WithWaitHint sets the suggested backoff delay for availability errors.
func (e *HosterError) WithWaitHint(seconds int) *HosterError {
	e.WaitHint = seconds
	return e
}

// WithHTTPStatus records the HTTP status that produced the error.
func (e *HosterError) WithHTTPStatus(status int) *HosterError {
	e.HTTPStatus = status
	return e
}

// WithContext adds context information to the error
func (e *HosterError) WithContext(key string, value interface{}) *HosterError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsRetryable reports whether the retry controller may re-invoke resolution
// after this error. Only availability waits and captcha failures retry; every
// other kind is terminal for the link.
func (e *HosterError) IsRetryable() bool {
	switch e.Kind {
	case KindTemporarilyUnavailable, KindCaptchaFailed:
		return true
	default:
		return false
	}
}

// AsHosterError normalizes any error into a HosterError. Unknown error values
// become the fatal catch-all, matching the defensive classifier contract.
func AsHosterError(err error) *HosterError {
	if err == nil {
		return nil
	}
	if he, ok := err.(*HosterError); ok {
		return he
	}
	return NewHosterError(KindFatal, err.Error())
}

// Common error constructors for frequently used failures

// NewLinkDeadError creates an error for removed or never-existing files.
func NewLinkDeadError(url string) *HosterError {
	return NewHosterError(KindLinkDead, "link is dead: file not found or removed").WithURL(url)
}

// NewNoModuleError creates an error for URLs no resolver matches.
func NewNoModuleError(url string) *HosterError {
	return NewHosterError(KindNoModuleFound, "no module matches this URL and fallback is disabled").WithURL(url)
}

// NewTempUnavailableError creates an availability error with a wait hint.
func NewTempUnavailableError(url string, waitSeconds int) *HosterError {
	return NewHosterError(KindTemporarilyUnavailable, "file temporarily unavailable").
		WithURL(url).
		WithWaitHint(waitSeconds)
}

// NewNetworkError creates an error for transfer-level network failures.
func NewNetworkError(message string, status int) *HosterError {
	return NewHosterError(KindNetwork, message).WithHTTPStatus(status)
}

// NewSystemError creates an error for local environment failures.
func NewSystemError(message string) *HosterError {
	return NewHosterError(KindSystemFailure, message)
}
