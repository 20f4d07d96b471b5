package plex

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSearchResult_UnmarshalDiscriminates(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ResultKind
		wantErr bool
	}{
		{"item", `{"score":1,"Metadata":{"ratingKey":"1","type":"movie"}}`, KindItem, false},
		{"directory", `{"score":1,"Directory":{"id":3,"tag":"Drama"}}`, KindDirectory, false},
		{"neither", `{"score":1}`, KindUnknownResult, false},
		{"both", `{"Metadata":{},"Directory":{}}`, KindUnknownResult, false},
		{"broken", `{"Metadata":[]}`, KindUnknownResult, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r SearchResult
			err := json.Unmarshal([]byte(tt.input), &r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if r.Kind != tt.want {
				t.Fatalf("Kind = %v, want %v", r.Kind, tt.want)
			}
			if (r.Item != nil) != (tt.want == KindItem) || (r.Directory != nil) != (tt.want == KindDirectory) {
				t.Fatalf("payloads = item:%v dir:%v, want only the %v payload", r.Item, r.Directory, tt.want)
			}
		})
	}
}

func TestSearchResult_MarshalKeepsVariant(t *testing.T) {
	in := SearchResult{Kind: KindDirectory, Score: 0.5, Directory: &Directory{ID: 9, Tag: "Horror"}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	var out SearchResult
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if out.Kind != KindDirectory || out.Directory.Tag != "Horror" || out.Item != nil {
		t.Fatalf("round trip = %#v, want directory Horror", out)
	}
}

func TestDirectory_LabelAndBrowseKey(t *testing.T) {
	d := Directory{ID: 12, Tag: "Comedy", LibrarySectionID: 3, LibrarySectionTitle: "Films"}
	if got := d.Label(); got != "Films - Comedy" {
		t.Fatalf("Label = %q, want %q", got, "Films - Comedy")
	}
	if got := d.BrowseKey(); got != "/library/sections/3/genre/12" {
		t.Fatalf("BrowseKey = %q, want %q", got, "/library/sections/3/genre/12")
	}
	if got := (Directory{Key: "2", Title: "Shows"}).SectionKey(); got != "/library/sections/2/all" {
		t.Fatalf("SectionKey = %q, want /library/sections/2/all", got)
	}
}

func TestPin_ParsedExpiresAt(t *testing.T) {
	p := Pin{ExpiresAt: "2026-01-02T03:04:05Z"}
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := p.ParsedExpiresAt(); !got.Equal(want) {
		t.Fatalf("ParsedExpiresAt = %v, want %v", got, want)
	}
	if got := (Pin{ExpiresAt: "garbage"}).ParsedExpiresAt(); !got.IsZero() {
		t.Fatalf("ParsedExpiresAt(garbage) = %v, want zero", got)
	}
}

func TestUser_DisplayNameFallsBackToUsername(t *testing.T) {
	if got := (User{Username: "kate", Title: "  "}).DisplayName(); got != "kate" {
		t.Fatalf("DisplayName = %q, want kate", got)
	}
}
