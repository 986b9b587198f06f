package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tvx/internal/shared"
)

// Page is one page of a paginated collection.
type Page[T any] struct {
	Items []T
	Total int
	Next  *string
}

// PageFetcher loads the page at url. The first url is relative to the API root, cursors are absolute.
type PageFetcher[T any] func(ctx context.Context, url string) (*Page[T], error)

// Pager lazily walks every page of a collection, in the style of [bufio.Scanner]:
//
//	for p.Next(ctx) {
//		item, total := p.Item(), p.Total()
//	}
//	if err := p.Err(); err != nil { ... }
//
// Pages are only requested when the items of the previous one have been consumed.
// A Pager is not safe for concurrent use.
type Pager[T any] struct {
	fetch PageFetcher[T]
	root  string
	url   string

	page    *Page[T]
	index   int
	fetched bool
	done    bool

	item  T
	total int
	err   error
}

// NewPager creates a [Pager] starting at first. Every "next" cursor must start with root.
func NewPager[T any](root, first string, fetch PageFetcher[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch, root: root, url: first}
}

// Next advances to the next item, fetching the next page when needed.
// It returns false at the end of the collection or on error.
func (p *Pager[T]) Next(ctx context.Context) bool {
	for {
		if p.err != nil {
			return false
		}

		if p.page != nil && p.index < len(p.page.Items) {
			p.item = p.page.Items[p.index]
			p.index++
			return true
		}

		if p.done {
			return false
		}

		if p.fetched && !strings.HasPrefix(p.url, p.root) {
			p.err = fmt.Errorf("%w: %s", shared.ErrUnexpectedCursor, p.url)
			return false
		}

		page, err := p.fetch(ctx, p.url)
		if err != nil {
			p.err = err
			return false
		}
		p.fetched = true
		p.page, p.index, p.total = page, 0, page.Total

		if page.Next == nil || *page.Next == "" {
			p.done = true
		} else {
			p.url = *page.Next
		}
	}
}

// Item returns the current item.
func (p *Pager[T]) Item() T { return p.item }

// Total returns the total reported by the page holding the current item.
func (p *Pager[T]) Total() int { return p.total }

// Err returns the first error encountered.
func (p *Pager[T]) Err() error { return p.err }

// Collect consumes the rest of the collection.
func (p *Pager[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for p.Next(ctx) {
		items = append(items, p.Item())
	}
	return items, p.Err()
}
