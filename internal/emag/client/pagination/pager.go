// Package pagination drives one marketplace resource across pages until
// exhaustion. Pages are fetched and yielded strictly in order; a failed page
// surfaces a partial result with enough state to resume.
package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"emagsync_api/internal/emag/client"
	"emagsync_api/pkg/logger"
)

// Page is one fetched page with its raw items.
type Page struct {
	Number int
	Items  []json.RawMessage
}

// PartialError reports a stream that ended early. Items carries everything
// yielded before the failure so the caller can persist progress and resume
// from Cursor instead of restarting.
type PartialError struct {
	Items      []json.RawMessage
	FailedPage int
	Cursor     string
	Err        error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("pagination failed on page %d after %d items: %v", e.FailedPage, len(e.Items), e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// PageCursor encodes a resume position for a partially completed stream.
func PageCursor(page int) string {
	return fmt.Sprintf("page:%d", page)
}

// StartPage decodes a resume cursor; anything unparseable starts from 1.
func StartPage(cursor string) int {
	if rest, ok := strings.CutPrefix(cursor, "page:"); ok {
		if page, err := strconv.Atoi(rest); err == nil && page > 0 {
			return page
		}
	}
	return 1
}

type Pager struct {
	caller   client.Caller
	pageSize int
	log      logger.Logger
}

// NewPager builds a driver with the given page size, clamped to the
// marketplace cap regardless of what the caller asked for.
func NewPager(caller client.Caller, pageSize int, log logger.Logger) *Pager {
	if pageSize <= 0 || pageSize > client.MaxPageSize {
		pageSize = client.MaxPageSize
	}
	return &Pager{
		caller:   caller,
		pageSize: pageSize,
		log:      log.WithPrefix("[pager]"),
	}
}

// Each fetches pages starting at startPage and hands each to fn, in page
// order. The stream terminates when a page comes back shorter than the page
// size or empty. Transient failures are retried inside the client; once its
// budget is exhausted the whole stream fails with a PartialError (carrying
// no items; streaming callers already hold everything yielded so far).
func (p *Pager) Each(ctx context.Context, req client.Request, startPage int, fn func(Page) error) error {
	if startPage < 1 {
		startPage = 1
	}

	for page := startPage; ; page++ {
		req.CurrentPage = page
		req.ItemsPerPage = p.pageSize

		envelope, err := p.caller.Call(ctx, req)
		if err != nil {
			return &PartialError{FailedPage: page, Cursor: PageCursor(page), Err: err}
		}

		items, err := envelope.ResultItems()
		if err != nil {
			return &PartialError{FailedPage: page, Cursor: PageCursor(page), Err: err}
		}
		if len(items) == 0 {
			return nil
		}

		if err := fn(Page{Number: page, Items: items}); err != nil {
			return &PartialError{FailedPage: page, Cursor: PageCursor(page), Err: err}
		}

		if len(items) < p.pageSize {
			return nil
		}
	}
}

// Collect accumulates every item of the stream. On failure the returned
// PartialError carries the already-yielded items and the failing page.
func (p *Pager) Collect(ctx context.Context, req client.Request, startPage int) ([]json.RawMessage, int, error) {
	var all []json.RawMessage
	pages := 0
	err := p.Each(ctx, req, startPage, func(page Page) error {
		all = append(all, page.Items...)
		pages++
		return nil
	})
	if err != nil {
		var partial *PartialError
		if ok := asPartial(err, &partial); ok {
			partial.Items = all
			return all, pages, partial
		}
		return all, pages, err
	}
	return all, pages, nil
}

func asPartial(err error, target **PartialError) bool {
	p, ok := err.(*PartialError)
	if ok {
		*target = p
	}
	return ok
}
