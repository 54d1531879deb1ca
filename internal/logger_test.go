package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestSecureLogger_RedactSensitiveData(t *testing.T) {
	logger := NewDefaultLogger(false, false)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "redact_cookie_header",
			input:    "Cookie: session=abc123; token=xyz",
			expected: "Cookie: [REDACTED]",
		},
		{
			name:     "redact_set_cookie_header",
			input:    "Set-Cookie: sid=789; Path=/",
			expected: "Set-Cookie: [REDACTED]",
		},
		{
			name:     "redact_authorization_header",
			input:    "Authorization: Bearer token123",
			expected: "Authorization: [REDACTED]",
		},
		{
			name:     "redact_url_token_parameter",
			input:    "fetching https://example.com/dl?token=secret123&mirror=2",
			expected: "fetching https://example.com/dl?token=[REDACTED]&mirror=2",
		},
		{
			name:     "redact_url_session_parameter",
			input:    "direct URL https://cdn.example.com/f.bin?session=deadbeef",
			expected: "direct URL https://cdn.example.com/f.bin?session=[REDACTED]",
		},
		{
			name:     "redact_password_parameter",
			input:    "resolved https://example.com/f?password=hunter2 in 3s",
			expected: "resolved https://example.com/f?password=[REDACTED] in 3s",
		},
		{
			name:     "no_sensitive_data",
			input:    "downloaded file.bin in 12s",
			expected: "downloaded file.bin in 12s",
		},
		{
			name:     "redaction_stops_at_newline",
			input:    "Cookie: secret\nnext line stays",
			expected: "Cookie: [REDACTED]\nnext line stays",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := logger.redactSensitiveData(tt.input)
			if result != tt.expected {
				t.Errorf("redactSensitiveData() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestSecureLogger_LogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, LogLevelWarn, false, false)

	logger.Error("error message")
	logger.Warn("warn message")
	logger.Info("info message")
	logger.Debug("debug message")

	output := buf.String()
	if !strings.Contains(output, "error message") {
		t.Errorf("error should be logged at warn level")
	}
	if !strings.Contains(output, "warn message") {
		t.Errorf("warn should be logged at warn level")
	}
	if strings.Contains(output, "info message") {
		t.Errorf("info should be suppressed at warn level")
	}
	if strings.Contains(output, "debug message") {
		t.Errorf("debug should be suppressed at warn level")
	}
}

func TestSecureLogger_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, LogLevelDebug, false, true)

	logger.Error("error stays")
	logger.Info("info goes")

	output := buf.String()
	if !strings.Contains(output, "error stays") {
		t.Errorf("quiet mode keeps errors")
	}
	if strings.Contains(output, "info goes") {
		t.Errorf("quiet mode suppresses info")
	}
}

func TestSecureLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, LogLevelError, false, false)

	logger.Info("before")
	logger.SetLevel(LogLevelInfo)
	logger.Info("after")

	output := buf.String()
	if strings.Contains(output, "before") {
		t.Errorf("info must not log at error level")
	}
	if !strings.Contains(output, "after") {
		t.Errorf("info must log after level raise")
	}
}

func TestSecureLogger_DebugIncludesCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, LogLevelDebug, true, false)

	logger.Debug("trace me")

	output := buf.String()
	if !strings.Contains(output, "trace me") {
		t.Fatalf("debug message missing: %q", output)
	}
	if !strings.Contains(output, ".go:") {
		t.Errorf("debug mode should include caller file and line, got %q", output)
	}
}

type suffixRedactor struct{}

func (suffixRedactor) Redact(input string) string {
	return strings.ReplaceAll(input, "topsecret", "[HIDDEN]")
}

func TestSecureLogger_AddRedactor(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, LogLevelInfo, false, false)
	logger.AddRedactor(suffixRedactor{})

	logger.Info("value is topsecret")

	if !strings.Contains(buf.String(), "[HIDDEN]") {
		t.Errorf("custom redactor not applied: %q", buf.String())
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LogLevelError, "ERROR"},
		{LogLevelWarn, "WARN"},
		{LogLevelInfo, "INFO"},
		{LogLevelDebug, "DEBUG"},
		{LogLevel(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}
