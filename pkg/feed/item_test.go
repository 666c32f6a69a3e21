package feed

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeItem(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		wantErr  bool
		validate func(*testing.T, Item)
	}{
		{
			name: "lowercase fields with RFC3339 time",
			raw: map[string]any{
				"id":        "abc",
				"image":     "https://example.com/a.png",
				"artist":    "Ann",
				"createdAt": "2024-05-01T10:00:00Z",
				"upvotes":   float64(7),
				"downvotes": float64(2),
			},
			validate: func(t *testing.T, it Item) {
				if it.ID != "abc" || it.ImageURL != "https://example.com/a.png" || it.Artist != "Ann" {
					t.Errorf("unexpected identity fields: %+v", it)
				}
				want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
				if !it.CreatedAt.Equal(want) {
					t.Errorf("expected %v, got %v", want, it.CreatedAt)
				}
				if it.Score() != 5 {
					t.Errorf("expected score 5, got %d", it.Score())
				}
			},
		},
		{
			name: "capitalized fields with firestore timestamp",
			raw: map[string]any{
				"docId":     "xyz",
				"Image":     "https://example.com/b.png",
				"Artist":    "Bo",
				"CreatedAt": map[string]any{"_seconds": float64(1700000000), "_nanoseconds": float64(500)},
				"phase":     float64(1.25),
				"speed":     "2",
			},
			validate: func(t *testing.T, it Item) {
				if it.ID != "xyz" || it.Artist != "Bo" {
					t.Errorf("unexpected identity fields: %+v", it)
				}
				if it.CreatedAt.Unix() != 1700000000 || it.CreatedAt.Nanosecond() != 500 {
					t.Errorf("unexpected timestamp %v", it.CreatedAt)
				}
				if it.Phase == nil || *it.Phase != 1.25 {
					t.Errorf("expected phase 1.25, got %v", it.Phase)
				}
				if it.Speed == nil || *it.Speed != 2 {
					t.Errorf("expected speed 2, got %v", it.Speed)
				}
				if it.Amplitude != nil || it.Peduncle != nil {
					t.Error("absent optional fields should stay nil")
				}
			},
		},
		{
			name: "epoch millis and nested votes",
			raw: map[string]any{
				"_id":       "m1",
				"imageUrl":  "https://example.com/c.png",
				"timestamp": float64(1700000000123),
				"votes":     map[string]any{"up": float64(3), "down": float64(1)},
			},
			validate: func(t *testing.T, it Item) {
				if it.Artist != "Anonymous" {
					t.Errorf("expected default artist, got %q", it.Artist)
				}
				if it.CreatedAt.UnixMilli() != 1700000000123 {
					t.Errorf("unexpected timestamp %v", it.CreatedAt)
				}
				if it.Upvotes != 3 || it.Downvotes != 1 {
					t.Errorf("unexpected votes %d/%d", it.Upvotes, it.Downvotes)
				}
			},
		},
		{
			name:    "missing image",
			raw:     map[string]any{"id": "no-image"},
			wantErr: true,
		},
		{
			name:    "missing id",
			raw:     map[string]any{"image": "https://example.com/d.png"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := NormalizeItem(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrBadItem) {
					t.Fatalf("expected ErrBadItem, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.validate(t, it)
		})
	}
}

func TestParseSort(t *testing.T) {
	for _, s := range []string{"recent", "Popular", " RANDOM "} {
		if _, err := ParseSort(s); err != nil {
			t.Errorf("ParseSort(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseSort("oldest"); err == nil {
		t.Error("expected error for unknown sort")
	}
}
