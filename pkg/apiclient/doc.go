// Package apiclient is the JSON-over-HTTP client for the estate marketplace
// backend.
//
// Every call goes through Client.Request, which attaches the bearer token for
// the configured token key, an optional CSRF token and a request ID, applies a
// per-request deadline and maps every failure onto a single *Error type whose
// Status field tells the cases apart:
//
//	0    transport failure, cancelled request or an unparseable body
//	408  the request deadline elapsed
//	500  ValidateResult was set and the body was not an object or array
//	N    any other non-2xx HTTP status, with the server's message
//
// Callers branch with errors.As:
//
//	var apiErr *apiclient.Error
//	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
//		// log in again
//	}
//
// Backend endpoints disagree on their success envelope. Unwrap decodes a
// response body according to an explicit Shape chosen at the call site:
//
//	props, err := apiclient.Unwrap[[]Property](raw, apiclient.ShapeContent)
//
// The client never retries and never writes tokens.
package apiclient
