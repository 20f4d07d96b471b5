// Package plex provides an HTTP client for a Plex media server and the
// plex.tv account service.
//
// # Overview
//
// The client is the remote catalog collaborator for the Nevu stores. It
// performs authenticated JSON requests and returns typed records:
//
//   - Server identity (GET / on the media server)
//   - The signed-in account (GET /api/v2/user on plex.tv)
//   - The continue-watching hub, keyed by rating key
//   - Account settings as a flat name/value map
//   - Catalog search results as tagged variants
//   - Library sections
//   - PIN creation and polling for linking a new client
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json
//   - Send X-Plex-Product, X-Plex-Version and X-Plex-Client-Identifier
//   - Send X-Plex-Token from the configured token source, read per request
//   - Have a 10-second timeout unless a custom http.Client is supplied
//
// Calls that need a token fail with KindAuth before touching the network
// when the token source returns an empty string.
//
// # Error Handling
//
// Every failure is an *Error carrying a Kind:
//
//   - KindNetwork: the request did not complete, or the server answered
//     with a status other than 401, 403 or 404
//   - KindAuth: token missing, or 401/403
//   - KindNotFound: 404
//   - KindMalformed: the body could not be decoded into the expected shape
//
// Use KindOf or errors.As to branch on the kind.
//
// # Search Results
//
// The search endpoint returns a list whose entries carry either a Metadata
// or a Directory object. SearchResult decodes each entry into a variant with
// an explicit Kind; an entry carrying both is rejected as malformed.
package plex
