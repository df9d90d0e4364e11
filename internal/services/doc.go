// Package services defines the [Provider] interface for upstream music catalogs and implements it for Deezer and Jamendo.
//
// # Provider Interface
//
// Every catalog exposes the same two read operations, search and trending, and returns canonical [models.Track] values.
// Provider-specific JSON is decoded into a tagged [RawRecord] and mapped with [Normalize].
//
// # Deezer (licensed)
//
// [DeezerService] reaches the Deezer catalog through the RapidAPI gateway.
// Requests carry the X-RapidAPI-Key and X-RapidAPI-Host headers and responses are wrapped in a {"data": [...]} envelope.
// Deezer reports some failures with HTTP 200 and an {"error": {...}} body; these are failures too.
//
// # Jamendo (community)
//
// [JamendoService] calls the public Jamendo v3 API with a client_id query parameter.
// Responses carry a {"headers": {...}, "results": [...]} envelope and headers.status must be "success".
//
// # Error Handling
//
// Every adapter failure is a [*ProviderError] carrying the source, the operation and the upstream status (0 when no response was received).
// The wrapped error is one of:
//   - [shared.ErrInvalidInput] : empty query, no request made
//   - [shared.ErrTimeout] : transport timeout or deadline exceeded
//   - [shared.ErrAPIRequest] : transport failure, non-2xx status or in-body failure
//   - [shared.ErrDecode] : undecodable response body
//
// Adapters make exactly one outbound call per invocation. Retries belong to the caller, guided by [ProviderError.Retryable].
package services
