// Package search drives the search page: it debounces query edits, cancels
// requests for queries the user has moved past, and splits the response into
// playable items and category directories.
//
// Each SetQuery bumps a sequence number. A response is published only while
// its sequence number is still the latest, so a slow reply for an old query
// can never overwrite the results of a newer one.
package search
