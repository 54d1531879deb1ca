package downloader

import (
	"context"
	"time"

	"plowdown/internal"
)

// defaultAvailabilityWait is the backoff applied when a hoster signals
// temporary unavailability without suggesting a delay. Variable so tests can
// shorten it.
var defaultAvailabilityWait = 60 * time.Second

// RunWithRetries drives a resolver module to a terminal outcome.
//
// Temporary unavailability sleeps out the hoster's wait hint (60s when none
// is given) and retries without consuming retry budget, unless the caller
// asked not to wait. Captcha failures consume budget and retry, unless the
// captcha method is "none". Every other outcome, success or failure, ends
// the loop immediately. A retry cap of 0 disables retrying; a negative cap
// retries indefinitely; an exhausted cap yields MaxTriesReached.
func RunWithRetries(ctx context.Context, resolver internal.Resolver, lc *internal.LinkContext) (*internal.ResolveOutcome, *internal.HosterError) {
	opts := lc.Options

	for {
		outcome, herr := invokeResolver(ctx, resolver, lc)
		if herr == nil {
			return outcome, nil
		}

		switch herr.Kind {
		case internal.KindTemporarilyUnavailable:
			if opts.NoExtraWait {
				return nil, herr
			}

			wait := defaultAvailabilityWait
			if herr.WaitHint > 0 {
				wait = time.Duration(herr.WaitHint) * time.Second
			}
			internal.LogInfo("link %s unavailable, waiting %s before retrying", lc.Item.URL, wait)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, internal.NewHosterError(internal.KindMaxWaitReached,
					"wait budget exceeded during availability backoff").WithURL(lc.Item.URL)
			}
			// Availability waits never consume retry budget.
			continue

		case internal.KindCaptchaFailed:
			if opts.CaptchaMethod == "none" {
				return nil, herr
			}
			if opts.MaxRetries == 0 {
				return nil, herr
			}

			lc.Attempts++
			if opts.MaxRetries > 0 && lc.Attempts > opts.MaxRetries {
				return nil, internal.NewHosterError(internal.KindMaxTriesReached,
					"retry budget exhausted").WithURL(lc.Item.URL)
			}

			internal.LogWarn("captcha failed for %s, retrying (attempt %d)", lc.Item.URL, lc.Attempts+1)

			select {
			case <-ctx.Done():
				return nil, internal.NewHosterError(internal.KindMaxWaitReached,
					"wait budget exceeded during captcha retry").WithURL(lc.Item.URL)
			default:
			}
			continue

		default:
			// Terminal failure, propagated unchanged.
			return nil, herr
		}
	}
}
