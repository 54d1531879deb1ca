package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorKindExitCodes(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want int
	}{
		{KindFatal, ExitCodeFatal},
		{KindNoModuleFound, ExitCodeNoModule},
		{KindNetwork, ExitCodeNetwork},
		{KindLoginFailed, ExitCodeLoginFailed},
		{KindMaxWaitReached, ExitCodeMaxWaitReached},
		{KindMaxTriesReached, ExitCodeMaxTriesReached},
		{KindCaptchaFailed, ExitCodeCaptcha},
		{KindSystemFailure, ExitCodeSystem},
		{KindTemporarilyUnavailable, ExitCodeTempUnavailable},
		{KindNeedPermissions, ExitCodeNeedPermissions},
		{KindLinkDead, ExitCodeLinkDead},
		{KindPasswordRequired, ExitCodePassword},
		{ErrorKind(999), ExitCodeFatal},
	}

	for _, tt := range tests {
		if got := tt.kind.ExitCode(); got != tt.want {
			t.Errorf("%s.ExitCode() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestErrorKindString(t *testing.T) {
	if got := KindLinkDead.String(); got != "LinkDead" {
		t.Errorf("got %q", got)
	}
	if got := ErrorKind(999).String(); got != "Unknown" {
		t.Errorf("got %q", got)
	}
}

func TestHosterError_Error(t *testing.T) {
	err := NewHosterError(KindTemporarilyUnavailable, "slot busy").WithWaitHint(45)
	msg := err.Error()

	if !strings.Contains(msg, "TemporarilyUnavailable") {
		t.Errorf("message should name the kind: %q", msg)
	}
	if !strings.Contains(msg, "slot busy") {
		t.Errorf("message should carry the detail: %q", msg)
	}
	if !strings.Contains(msg, "45s") {
		t.Errorf("message should carry the wait hint: %q", msg)
	}
}

func TestHosterError_Builders(t *testing.T) {
	err := NewHosterError(KindNetwork, "boom").
		WithURL("https://example.com/f/1").
		WithHTTPStatus(502).
		WithContext("attempt", 3)

	if err.URL != "https://example.com/f/1" {
		t.Errorf("URL not set")
	}
	if err.HTTPStatus != 502 {
		t.Errorf("HTTP status not set")
	}
	if err.Context["attempt"] != 3 {
		t.Errorf("context not set")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorKind{KindTemporarilyUnavailable, KindCaptchaFailed}
	for _, k := range retryable {
		if !NewHosterError(k, "x").IsRetryable() {
			t.Errorf("%s should be retryable", k)
		}
	}

	terminal := []ErrorKind{
		KindFatal, KindNoModuleFound, KindNetwork, KindLoginFailed,
		KindMaxWaitReached, KindMaxTriesReached, KindSystemFailure,
		KindNeedPermissions, KindLinkDead, KindPasswordRequired,
	}
	for _, k := range terminal {
		if NewHosterError(k, "x").IsRetryable() {
			t.Errorf("%s must be terminal", k)
		}
	}
}

func TestAsHosterError(t *testing.T) {
	t.Run("nil_passes_through", func(t *testing.T) {
		if AsHosterError(nil) != nil {
			t.Errorf("nil must map to nil")
		}
	})

	t.Run("typed_error_unchanged", func(t *testing.T) {
		orig := NewLinkDeadError("https://example.com/f/1")
		if got := AsHosterError(orig); got != orig {
			t.Errorf("typed error must come back unchanged")
		}
	})

	t.Run("plain_error_becomes_fatal", func(t *testing.T) {
		got := AsHosterError(errors.New("something else"))
		if got.Kind != KindFatal {
			t.Errorf("expected fatal catch-all, got %s", got.Kind)
		}
		if got.Message != "something else" {
			t.Errorf("message must be preserved, got %q", got.Message)
		}
	})
}

func TestConstructors(t *testing.T) {
	if e := NewLinkDeadError("u"); e.Kind != KindLinkDead || e.URL != "u" {
		t.Errorf("unexpected link-dead error: %+v", e)
	}
	if e := NewNoModuleError("u"); e.Kind != KindNoModuleFound {
		t.Errorf("unexpected no-module error: %+v", e)
	}
	if e := NewTempUnavailableError("u", 30); e.Kind != KindTemporarilyUnavailable || e.WaitHint != 30 {
		t.Errorf("unexpected availability error: %+v", e)
	}
	if e := NewNetworkError("n", 502); e.Kind != KindNetwork || e.HTTPStatus != 502 {
		t.Errorf("unexpected network error: %+v", e)
	}
	if e := NewSystemError("s"); e.Kind != KindSystemFailure {
		t.Errorf("unexpected system error: %+v", e)
	}
}
