package downloader

import "plowdown/internal"

// Annotation tags written to link-list files for the failure kinds that
// get marked.
const (
	TagNotFound = "NOTFOUND"
	TagPassword = "PASSWORD"
	TagNoModule = "NOMODULE"
)

// Classification is the fixed per-kind verdict for a terminal outcome:
// the user-facing notice, and the annotation tag if the kind gets one.
type Classification struct {
	Message string
	Tag     string
}

// classifications maps every known terminal failure kind to its verdict.
// All of them abort the link; only success falls through to the transfer
// engine. Kinds absent from this table are handled as the fatal catch-all.
var classifications = map[internal.ErrorKind]Classification{
	internal.KindLoginFailed: {
		Message: "login process failed, bad credentials or unexpected content",
	},
	internal.KindPasswordRequired: {
		Message: "link requires a password",
		Tag:     TagPassword,
	},
	internal.KindNeedPermissions: {
		Message: "insufficient permissions, link may be premium-only",
	},
	internal.KindLinkDead: {
		Message: "link is not alive: file not found",
		Tag:     TagNotFound,
	},
	internal.KindMaxWaitReached: {
		Message: "wait budget exceeded",
	},
	internal.KindMaxTriesReached: {
		Message: "retry budget exhausted",
	},
	internal.KindCaptchaFailed: {
		Message: "error decoding captcha",
	},
	internal.KindTemporarilyUnavailable: {
		Message: "file is temporarily unavailable",
	},
	internal.KindSystemFailure: {
		Message: "system failure",
	},
	internal.KindNetwork: {
		Message: "network error",
	},
	internal.KindNoModuleFound: {
		Message: "no module for this URL",
		Tag:     TagNoModule,
	},
}

// Classify returns the verdict for a terminal failure. Unknown kinds are
// treated as fatal with a generic message.
func Classify(err *internal.HosterError) Classification {
	if c, ok := classifications[err.Kind]; ok {
		return c
	}
	return Classification{Message: "unexpected failure"}
}
