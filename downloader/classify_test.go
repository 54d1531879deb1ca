package downloader

import (
	"testing"

	"plowdown/internal"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		kind        internal.ErrorKind
		wantTag     string
		wantMessage bool
	}{
		{internal.KindLoginFailed, "", true},
		{internal.KindPasswordRequired, TagPassword, true},
		{internal.KindNeedPermissions, "", true},
		{internal.KindLinkDead, TagNotFound, true},
		{internal.KindMaxWaitReached, "", true},
		{internal.KindMaxTriesReached, "", true},
		{internal.KindCaptchaFailed, "", true},
		{internal.KindSystemFailure, "", true},
		{internal.KindNoModuleFound, TagNoModule, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			c := Classify(internal.NewHosterError(tt.kind, "x"))
			if c.Tag != tt.wantTag {
				t.Errorf("expected tag %q, got %q", tt.wantTag, c.Tag)
			}
			if tt.wantMessage && c.Message == "" {
				t.Errorf("expected a user-facing message")
			}
		})
	}
}

func TestClassify_UnknownKindIsFatal(t *testing.T) {
	c := Classify(internal.NewHosterError(internal.ErrorKind(999), "weird"))
	if c.Message == "" {
		t.Errorf("unknown kinds still need a generic message")
	}
	if c.Tag != "" {
		t.Errorf("unknown kinds must not be annotated, got tag %q", c.Tag)
	}
}
