// Package search translates email filters into mailbox queries and
// paginates the results.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mnohosten/mailbridge/internal/codec"
	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
)

// Mailbox is the slice of a mailbox session the engine needs.
type Mailbox interface {
	SearchUIDs(ctx context.Context, criteria *imap.SearchCriteria) ([]imap.UID, error)
	Fetch(ctx context.Context, uids []imap.UID, withBody bool) ([]*imapclient.FetchMessageBuffer, error)
	BodySection() *imap.FetchItemBodySection
}

// Translate converts a filter into IMAP search criteria. All present
// fields combine with AND; the zero filter matches everything. Since
// is inclusive and Before exclusive, per IMAP date semantics.
func Translate(f model.EmailFilter) *imap.SearchCriteria {
	criteria := &imap.SearchCriteria{}

	if f.From != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "From", Value: f.From})
	}
	if f.To != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "To", Value: f.To})
	}
	if f.Subject != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{Key: "Subject", Value: f.Subject})
	}
	if f.Since != nil {
		criteria.Since = *f.Since
	}
	if f.Before != nil {
		criteria.Before = *f.Before
	}
	if f.Seen != nil {
		if *f.Seen {
			criteria.Flag = append(criteria.Flag, imap.FlagSeen)
		} else {
			criteria.NotFlag = append(criteria.NotFlag, imap.FlagSeen)
		}
	}
	if f.Flagged != nil {
		if *f.Flagged {
			criteria.Flag = append(criteria.Flag, imap.FlagFlagged)
		} else {
			criteria.NotFlag = append(criteria.NotFlag, imap.FlagFlagged)
		}
	}

	return criteria
}

// Search runs a filter against the mailbox and returns one page of
// hydrated messages, most recent first. Only the requested page is
// fetched, so the fetch cost is bounded by the page size rather than
// the match count. A page past the end returns empty items with the
// correct total.
func Search(ctx context.Context, mbox Mailbox, filter model.EmailFilter, page, limit int) (*model.SearchResult, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1 (got %d)", mailerr.ErrValidation, page)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1 (got %d)", mailerr.ErrValidation, limit)
	}

	uids, err := mbox.SearchUIDs(ctx, Translate(filter))
	if err != nil {
		return nil, err
	}

	// UID search returns ascending order; most-recent-first means
	// descending UIDs, which is stable within one session.
	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })

	result := &model.SearchResult{
		Items: []*model.EmailMessage{},
		Total: len(uids),
		Page:  page,
		Limit: limit,
	}

	pageUIDs := slicePage(uids, page, limit)
	if len(pageUIDs) == 0 {
		return result, nil
	}

	bufs, err := mbox.Fetch(ctx, pageUIDs, true)
	if err != nil {
		return nil, err
	}

	// Fetch responses may arrive in any order; restore page order.
	byUID := make(map[imap.UID]*model.EmailMessage, len(bufs))
	for _, buf := range bufs {
		byUID[buf.UID] = codec.Decode(buf, mbox.BodySection())
	}
	for _, uid := range pageUIDs {
		if msg, ok := byUID[uid]; ok {
			result.Items = append(result.Items, msg)
		}
	}

	return result, nil
}

// ReadRecent returns the newest count messages; it is search with the
// empty filter, page 1 and limit count.
func ReadRecent(ctx context.Context, mbox Mailbox, count int) ([]*model.EmailMessage, error) {
	result, err := Search(ctx, mbox, model.EmailFilter{}, 1, count)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// slicePage returns the half-open window [(page-1)*limit, page*limit).
func slicePage(uids []imap.UID, page, limit int) []imap.UID {
	start := (page - 1) * limit
	if start >= len(uids) {
		return nil
	}
	end := start + limit
	if end > len(uids) {
		end = len(uids)
	}
	return uids[start:end]
}
