package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
)

// fakeMailbox serves canned UIDs and synthesizes envelopes on fetch.
type fakeMailbox struct {
	uids      []imap.UID
	searchErr error
	fetchErr  error
	fetched   [][]imap.UID
}

func (f *fakeMailbox) SearchUIDs(ctx context.Context, criteria *imap.SearchCriteria) ([]imap.UID, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]imap.UID{}, f.uids...), nil
}

func (f *fakeMailbox) Fetch(ctx context.Context, uids []imap.UID, withBody bool) ([]*imapclient.FetchMessageBuffer, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.fetched = append(f.fetched, uids)

	bufs := make([]*imapclient.FetchMessageBuffer, len(uids))
	for i, uid := range uids {
		bufs[i] = &imapclient.FetchMessageBuffer{
			UID: uid,
			Envelope: &imap.Envelope{
				Subject: fmt.Sprintf("message %d", uid),
				From:    []imap.Address{{Mailbox: "sender", Host: "example.com"}},
			},
		}
	}
	return bufs, nil
}

func (f *fakeMailbox) BodySection() *imap.FetchItemBodySection { return nil }

func uidRange(from, to imap.UID) []imap.UID {
	var out []imap.UID
	for u := from; u <= to; u++ {
		out = append(out, u)
	}
	return out
}

func TestTranslate(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	seen := true
	unseen := false

	tests := []struct {
		name   string
		filter model.EmailFilter
		check  func(t *testing.T, c *imap.SearchCriteria)
	}{
		{
			name:   "empty filter",
			filter: model.EmailFilter{},
			check: func(t *testing.T, c *imap.SearchCriteria) {
				if len(c.Header) != 0 || len(c.Flag) != 0 || len(c.NotFlag) != 0 {
					t.Errorf("empty filter produced constraints: %+v", c)
				}
				if !c.Since.IsZero() || !c.Before.IsZero() {
					t.Errorf("empty filter produced date constraints: %+v", c)
				}
			},
		},
		{
			name:   "header fields",
			filter: model.EmailFilter{From: "boss@co.com", To: "me@co.com", Subject: "urgent"},
			check: func(t *testing.T, c *imap.SearchCriteria) {
				if len(c.Header) != 3 {
					t.Fatalf("Header has %d entries, want 3", len(c.Header))
				}
				want := map[string]string{"From": "boss@co.com", "To": "me@co.com", "Subject": "urgent"}
				for _, h := range c.Header {
					if want[h.Key] != h.Value {
						t.Errorf("header %s = %q, want %q", h.Key, h.Value, want[h.Key])
					}
				}
			},
		},
		{
			name:   "date range",
			filter: model.EmailFilter{Since: &since, Before: &before},
			check: func(t *testing.T, c *imap.SearchCriteria) {
				if !c.Since.Equal(since) {
					t.Errorf("Since = %v, want %v", c.Since, since)
				}
				if !c.Before.Equal(before) {
					t.Errorf("Before = %v, want %v", c.Before, before)
				}
			},
		},
		{
			name:   "seen true",
			filter: model.EmailFilter{Seen: &seen},
			check: func(t *testing.T, c *imap.SearchCriteria) {
				if len(c.Flag) != 1 || c.Flag[0] != imap.FlagSeen {
					t.Errorf("Flag = %v, want [\\Seen]", c.Flag)
				}
			},
		},
		{
			name:   "seen false",
			filter: model.EmailFilter{Seen: &unseen},
			check: func(t *testing.T, c *imap.SearchCriteria) {
				if len(c.NotFlag) != 1 || c.NotFlag[0] != imap.FlagSeen {
					t.Errorf("NotFlag = %v, want [\\Seen]", c.NotFlag)
				}
			},
		},
		{
			name:   "flagged true",
			filter: model.EmailFilter{Flagged: &seen},
			check: func(t *testing.T, c *imap.SearchCriteria) {
				if len(c.Flag) != 1 || c.Flag[0] != imap.FlagFlagged {
					t.Errorf("Flag = %v, want [\\Flagged]", c.Flag)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Translate(tt.filter))
		})
	}
}

func TestSearchPaging(t *testing.T) {
	mbox := &fakeMailbox{uids: uidRange(1, 25)}

	result, err := Search(context.Background(), mbox, model.EmailFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("Search() returned %v", err)
	}

	if result.Total != 25 {
		t.Errorf("Total = %d, want 25", result.Total)
	}
	if len(result.Items) != 10 {
		t.Fatalf("page 1 has %d items, want 10", len(result.Items))
	}
	if result.Items[0].ID != "25" || result.Items[9].ID != "16" {
		t.Errorf("page 1 spans %s..%s, want 25..16", result.Items[0].ID, result.Items[9].ID)
	}

	// Only the requested page is fetched.
	if len(mbox.fetched) != 1 || len(mbox.fetched[0]) != 10 {
		t.Errorf("fetched %v, want one fetch of 10 uids", mbox.fetched)
	}
}

func TestSearchLastPartialPage(t *testing.T) {
	mbox := &fakeMailbox{uids: uidRange(1, 25)}

	result, err := Search(context.Background(), mbox, model.EmailFilter{}, 3, 10)
	if err != nil {
		t.Fatalf("Search() returned %v", err)
	}

	if len(result.Items) != 5 {
		t.Fatalf("page 3 has %d items, want 5", len(result.Items))
	}
	if result.Items[0].ID != "5" || result.Items[4].ID != "1" {
		t.Errorf("page 3 spans %s..%s, want 5..1", result.Items[0].ID, result.Items[4].ID)
	}
	if result.Total != 25 {
		t.Errorf("Total = %d, want 25", result.Total)
	}
}

func TestSearchPastEnd(t *testing.T) {
	mbox := &fakeMailbox{uids: uidRange(1, 5)}

	result, err := Search(context.Background(), mbox, model.EmailFilter{}, 4, 10)
	if err != nil {
		t.Fatalf("Search() returned %v", err)
	}

	if len(result.Items) != 0 {
		t.Errorf("past-end page has %d items, want 0", len(result.Items))
	}
	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if len(mbox.fetched) != 0 {
		t.Error("past-end page should not fetch anything")
	}
}

func TestSearchPagesNeverOverlap(t *testing.T) {
	mbox := &fakeMailbox{uids: uidRange(1, 23)}

	seen := make(map[string]bool)
	for page := 1; page <= 3; page++ {
		result, err := Search(context.Background(), mbox, model.EmailFilter{}, page, 10)
		if err != nil {
			t.Fatalf("Search(page %d) returned %v", page, err)
		}
		for _, msg := range result.Items {
			if seen[msg.ID] {
				t.Errorf("id %s appears on more than one page", msg.ID)
			}
			seen[msg.ID] = true
		}
	}

	if len(seen) != 23 {
		t.Errorf("pages covered %d distinct ids, want 23", len(seen))
	}
}

func TestSearchValidation(t *testing.T) {
	mbox := &fakeMailbox{uids: uidRange(1, 5)}

	for _, tc := range []struct{ page, limit int }{{0, 10}, {-1, 10}, {1, 0}, {1, -5}} {
		_, err := Search(context.Background(), mbox, model.EmailFilter{}, tc.page, tc.limit)
		if err == nil {
			t.Errorf("Search(page=%d, limit=%d) returned nil, want error", tc.page, tc.limit)
			continue
		}
		if !errors.Is(err, mailerr.ErrValidation) {
			t.Errorf("Search(page=%d, limit=%d) error is not ErrValidation: %v", tc.page, tc.limit, err)
		}
	}
}

func TestSearchPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	if _, err := Search(context.Background(), &fakeMailbox{searchErr: boom}, model.EmailFilter{}, 1, 10); !errors.Is(err, boom) {
		t.Errorf("search error not propagated, got %v", err)
	}
	if _, err := Search(context.Background(), &fakeMailbox{uids: uidRange(1, 5), fetchErr: boom}, model.EmailFilter{}, 1, 10); !errors.Is(err, boom) {
		t.Errorf("fetch error not propagated, got %v", err)
	}
}

func TestReadRecent(t *testing.T) {
	mbox := &fakeMailbox{uids: uidRange(1, 8)}

	msgs, err := ReadRecent(context.Background(), mbox, 5)
	if err != nil {
		t.Fatalf("ReadRecent() returned %v", err)
	}

	if len(msgs) != 5 {
		t.Fatalf("ReadRecent() returned %d messages, want 5", len(msgs))
	}
	if msgs[0].ID != "8" {
		t.Errorf("first message id = %s, want 8 (newest first)", msgs[0].ID)
	}
}
