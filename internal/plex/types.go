package plex

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Server describes the media server identity returned by GET /.
type Server struct {
	FriendlyName      string `json:"friendlyName"`
	MachineIdentifier string `json:"machineIdentifier"`
	Version           string `json:"version"`
	Platform          string `json:"platform"`
	URL               string `json:"-"`
}

// User mirrors the plex.tv /api/v2/user payload.
type User struct {
	ID       int64  `json:"id"`
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Thumb    string `json:"thumb"`
}

// DisplayName prefers the account title over the username.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Title); name != "" {
		return name
	}
	return u.Username
}

// Metadata is a movie, show, episode or other catalog item.
type Metadata struct {
	RatingKey        string `json:"ratingKey"`
	Key              string `json:"key"`
	Type             string `json:"type"`
	Title            string `json:"title"`
	GrandparentTitle string `json:"grandparentTitle"`
	Summary          string `json:"summary"`
	Year             int    `json:"year"`
	Thumb            string `json:"thumb"`
	ViewOffset       int64  `json:"viewOffset"`   // milliseconds
	Duration         int64  `json:"duration"`     // milliseconds
	LastViewedAt     int64  `json:"lastViewedAt"` // unix seconds
	LibrarySectionID int64  `json:"librarySectionID"`
}

// WatchItem is one entry of the continue-watching hub.
type WatchItem = Metadata

// Directory is a category result (genre, collection) or a library section.
type Directory struct {
	Key                 string `json:"key"`
	ID                  int64  `json:"id"`
	Type                string `json:"type"`
	Title               string `json:"title"`
	Tag                 string `json:"tag"`
	LibrarySectionID    int64  `json:"librarySectionID"`
	LibrarySectionTitle string `json:"librarySectionTitle"`
	UUID                string `json:"uuid"`
}

// Label renders the directory the way the search page lists categories.
func (d Directory) Label() string {
	return d.LibrarySectionTitle + " - " + d.Tag
}

// BrowseKey returns the library path listing the items in this category.
func (d Directory) BrowseKey() string {
	return fmt.Sprintf("/library/sections/%d/genre/%d", d.LibrarySectionID, d.ID)
}

// SectionKey returns the path listing every item of a library section.
func (d Directory) SectionKey() string {
	return "/library/sections/" + d.Key + "/all"
}

// ResultKind discriminates a SearchResult.
type ResultKind int

const (
	KindUnknownResult ResultKind = iota
	KindItem
	KindDirectory
)

func (k ResultKind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// SearchResult is a tagged variant: exactly one of Item or Directory is set,
// as indicated by Kind. A hit with neither, or with both, is
// KindUnknownResult and carries no payload.
type SearchResult struct {
	Kind      ResultKind
	Score     float64
	Item      *Metadata
	Directory *Directory
}

// UnmarshalJSON decodes a search hit and sets Kind from the payload present.
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Score     float64    `json:"score"`
		Metadata  *Metadata  `json:"Metadata"`
		Directory *Directory `json:"Directory"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = SearchResult{Score: raw.Score}
	switch {
	case raw.Metadata != nil && raw.Directory != nil:
		// Ambiguous; left unknown so the rest of the response survives.
	case raw.Metadata != nil:
		r.Kind = KindItem
		r.Item = raw.Metadata
	case raw.Directory != nil:
		r.Kind = KindDirectory
		r.Directory = raw.Directory
	}
	return nil
}

// MarshalJSON writes the variant back in wire form.
func (r SearchResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Score     float64    `json:"score"`
		Metadata  *Metadata  `json:"Metadata,omitempty"`
		Directory *Directory `json:"Directory,omitempty"`
	}{Score: r.Score}
	switch r.Kind {
	case KindItem:
		out.Metadata = r.Item
	case KindDirectory:
		out.Directory = r.Directory
	}
	return json.Marshal(out)
}

// Setting is a single account setting as exchanged with plex.tv.
type Setting struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// UnmarshalJSON accepts string, number and boolean values.
func (s *Setting) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    string          `json:"id"`
		Value json.RawMessage `json:"value"`
		Type  string          `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = raw.ID
	s.Type = raw.Type
	s.Value = ""
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(raw.Value, &str); err == nil {
		s.Value = str
		return nil
	}
	s.Value = string(raw.Value)
	return nil
}

// Pin is a plex.tv PIN used to link this client to an account.
type Pin struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	AuthToken string `json:"authToken"`
	ExpiresAt string `json:"expiresAt"`
}

// Linked reports whether the user has approved the PIN.
func (p Pin) Linked() bool {
	return strings.TrimSpace(p.AuthToken) != ""
}

// ParsedExpiresAt returns the expiry time, or zero when absent or invalid.
func (p Pin) ParsedExpiresAt() time.Time {
	if p.ExpiresAt == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, p.ExpiresAt); err == nil {
		return t
	}
	if secs, err := strconv.ParseInt(p.ExpiresAt, 10, 64); err == nil {
		return time.Unix(secs, 0)
	}
	return time.Time{}
}

type mediaContainer struct {
	MediaContainer struct {
		Size              int            `json:"size"`
		FriendlyName      string         `json:"friendlyName"`
		MachineIdentifier string         `json:"machineIdentifier"`
		Version           string         `json:"version"`
		Platform          string         `json:"platform"`
		Metadata          []Metadata     `json:"Metadata"`
		Directory         []Directory    `json:"Directory"`
		SearchResult      []SearchResult `json:"SearchResult"`
	} `json:"MediaContainer"`
}
