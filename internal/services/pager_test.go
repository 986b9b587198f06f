package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/tvx/internal/shared"
)

const testRoot = "https://api.example.test/v1/"

func strPtr(s string) *string { return &s }

// pagesFetcher serves pages keyed by url and records the order they were requested in.
type pagesFetcher struct {
	pages     map[string]*Page[string]
	requested []string
}

func (f *pagesFetcher) fetch(_ context.Context, url string) (*Page[string], error) {
	f.requested = append(f.requested, url)
	page, ok := f.pages[url]
	if !ok {
		return nil, errors.New("no such page: " + url)
	}
	return page, nil
}

func TestPager(t *testing.T) {
	t.Run("Concatenates Pages In Order With Page Totals", func(t *testing.T) {
		f := &pagesFetcher{pages: map[string]*Page[string]{
			"first":            {Items: []string{"a", "b"}, Total: 4, Next: strPtr(testRoot + "2")},
			testRoot + "2":     {Items: []string{}, Total: 5, Next: strPtr(testRoot + "3")},
			testRoot + "3":     {Items: []string{"c", "d", "e"}, Total: 5},
			testRoot + "other": {Items: []string{"never"}},
		}}

		p := NewPager(testRoot, "first", f.fetch)
		var items []string
		var totals []int
		for p.Next(context.Background()) {
			items = append(items, p.Item())
			totals = append(totals, p.Total())
		}

		if err := p.Err(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		wantItems := []string{"a", "b", "c", "d", "e"}
		wantTotals := []int{4, 4, 5, 5, 5}
		if len(items) != len(wantItems) {
			t.Fatalf("expected %v, got %v", wantItems, items)
		}
		for i := range wantItems {
			if items[i] != wantItems[i] || totals[i] != wantTotals[i] {
				t.Errorf("item %d: got (%s, %d), want (%s, %d)", i, items[i], totals[i], wantItems[i], wantTotals[i])
			}
		}
	})

	t.Run("Fetches Lazily", func(t *testing.T) {
		f := &pagesFetcher{pages: map[string]*Page[string]{
			"first":        {Items: []string{"a"}, Total: 2, Next: strPtr(testRoot + "2")},
			testRoot + "2": {Items: []string{"b"}, Total: 2},
		}}

		p := NewPager(testRoot, "first", f.fetch)
		if !p.Next(context.Background()) {
			t.Fatal("expected first item")
		}
		if len(f.requested) != 1 {
			t.Errorf("expected one page request before consuming page 1, got %v", f.requested)
		}
	})

	t.Run("Rejects Foreign Cursor", func(t *testing.T) {
		f := &pagesFetcher{pages: map[string]*Page[string]{
			"first": {Items: []string{"a"}, Total: 2, Next: strPtr("https://evil.test/v1/2")},
		}}

		items, err := NewPager(testRoot, "first", f.fetch).Collect(context.Background())
		if !errors.Is(err, shared.ErrUnexpectedCursor) {
			t.Fatalf("expected ErrUnexpectedCursor, got %v", err)
		}
		if len(items) != 1 {
			t.Errorf("expected items before the bad cursor to be yielded, got %v", items)
		}
		if len(f.requested) != 1 {
			t.Errorf("foreign cursor must not be fetched, got %v", f.requested)
		}
	})

	t.Run("Stops On Fetch Error", func(t *testing.T) {
		f := &pagesFetcher{pages: map[string]*Page[string]{}}

		p := NewPager(testRoot, "first", f.fetch)
		if p.Next(context.Background()) {
			t.Fatal("expected no items")
		}
		if p.Err() == nil {
			t.Error("expected fetch error")
		}
		if p.Next(context.Background()) {
			t.Error("Next should keep returning false after an error")
		}
		if len(f.requested) != 1 {
			t.Errorf("expected a single request, got %v", f.requested)
		}
	})
}
