// Package errs collects the sentinel errors shared across the gateway core
// so callers can branch on error identity with errors.Is instead of string
// matching, the same contract the teacher's handlers package expected from
// providers.Transform failures.
package errs

import "errors"

var (
	// ErrUnknownProvider is returned when a provider name has no registered Adapter.
	ErrUnknownProvider = errors.New("llmcore: unknown provider")

	// ErrNoUserMessage is returned by IAssistantAdapter.BuildRequest when the
	// conversation has no user-role turn for its one-shot request.
	ErrNoUserMessage = errors.New("llmcore: conversation has no user message")

	// ErrAuthenticationRequired is returned by adapters whose protocol signs
	// requests (iAssistant's HMAC-JWT, BFL's X-Key header) when no credential
	// was supplied.
	ErrAuthenticationRequired = errors.New("llmcore: authentication required")

	// ErrCanceled is returned by the BFL orchestrator when the caller's
	// cancellation token fires before the asset finishes generating.
	ErrCanceled = errors.New("llmcore: canceled")

	// ErrContentFiltered names a provider's moderation layer blocking a
	// request or response outright. No code in this module returns it: BFL
	// moderation is reported as a response with finish_reason content_filter.
	ErrContentFiltered = errors.New("llmcore: content filtered by provider")
)
