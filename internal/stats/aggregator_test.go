package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMailbox serves canned folder counts and a fixed sender per UID.
type fakeMailbox struct {
	folders map[string][2]int
	senders map[imap.UID]string
	uids    []imap.UID
	fetched int
}

func (f *fakeMailbox) Status(ctx context.Context, folder string) (int, int, error) {
	counts, ok := f.folders[folder]
	if !ok {
		return 0, 0, errors.New("no such folder")
	}
	return counts[0], counts[1], nil
}

func (f *fakeMailbox) SearchUIDs(ctx context.Context, criteria *imap.SearchCriteria) ([]imap.UID, error) {
	return append([]imap.UID{}, f.uids...), nil
}

func (f *fakeMailbox) Fetch(ctx context.Context, uids []imap.UID, withBody bool) ([]*imapclient.FetchMessageBuffer, error) {
	f.fetched = len(uids)
	bufs := make([]*imapclient.FetchMessageBuffer, len(uids))
	for i, uid := range uids {
		buf := &imapclient.FetchMessageBuffer{UID: uid}
		if addr := f.senders[uid]; addr != "" {
			at := strings.IndexByte(addr, '@')
			buf.Envelope = &imap.Envelope{
				From: []imap.Address{{Mailbox: addr[:at], Host: addr[at+1:]}},
			}
		}
		bufs[i] = buf
	}
	return bufs, nil
}

func TestGetStatistics(t *testing.T) {
	mbox := &fakeMailbox{
		folders: map[string][2]int{
			"INBOX": {10, 3},
			"Sent":  {4, 0},
		},
		uids: []imap.UID{1, 2, 3, 4, 5},
		senders: map[imap.UID]string{
			1: "alice@example.com",
			2: "bob@example.com",
			3: "alice@example.com",
			4: "alice@example.com",
			5: "bob@example.com",
		},
	}

	agg := NewAggregator(200, "Sent", discardLogger())
	stats, err := agg.GetStatistics(context.Background(), mbox)
	if err != nil {
		t.Fatalf("GetStatistics() returned %v", err)
	}

	if stats.TotalEmails != 10 {
		t.Errorf("TotalEmails = %d, want 10", stats.TotalEmails)
	}
	if stats.UnreadEmails != 3 {
		t.Errorf("UnreadEmails = %d, want 3", stats.UnreadEmails)
	}
	if stats.ReadEmails != 7 {
		t.Errorf("ReadEmails = %d, want 7", stats.ReadEmails)
	}
	if stats.ReadEmails+stats.UnreadEmails != stats.TotalEmails {
		t.Error("read + unread must equal total")
	}
	if stats.SentEmails != 4 {
		t.Errorf("SentEmails = %d, want 4", stats.SentEmails)
	}

	if len(stats.TopSenders) != 2 {
		t.Fatalf("TopSenders has %d entries, want 2", len(stats.TopSenders))
	}
	if stats.TopSenders[0].Address != "alice@example.com" || stats.TopSenders[0].Count != 3 {
		t.Errorf("top sender = %+v, want alice@example.com with 3", stats.TopSenders[0])
	}
}

func TestGetStatisticsMissingSentFolder(t *testing.T) {
	mbox := &fakeMailbox{
		folders: map[string][2]int{"INBOX": {2, 1}},
		uids:    []imap.UID{1, 2},
	}

	agg := NewAggregator(200, "Sent", discardLogger())
	stats, err := agg.GetStatistics(context.Background(), mbox)
	if err != nil {
		t.Fatalf("GetStatistics() returned %v, missing Sent folder should not fail", err)
	}
	if stats.SentEmails != 0 {
		t.Errorf("SentEmails = %d, want 0", stats.SentEmails)
	}
}

func TestGetStatisticsWindowBoundsFetch(t *testing.T) {
	uids := make([]imap.UID, 50)
	senders := make(map[imap.UID]string, 50)
	for i := range uids {
		uids[i] = imap.UID(i + 1)
		senders[uids[i]] = "bulk@example.com"
	}

	mbox := &fakeMailbox{
		folders: map[string][2]int{"INBOX": {50, 0}},
		uids:    uids,
		senders: senders,
	}

	agg := NewAggregator(20, "Sent", discardLogger())
	if _, err := agg.GetStatistics(context.Background(), mbox); err != nil {
		t.Fatalf("GetStatistics() returned %v", err)
	}

	if mbox.fetched != 20 {
		t.Errorf("fetched %d envelopes, want the window of 20", mbox.fetched)
	}
}

func TestRankSenders(t *testing.T) {
	senders := []string{
		"a@example.com",
		"b@example.com",
		"a@example.com",
		"",
		"c@example.com",
		"b@example.com",
		"a@example.com",
	}

	ranking := RankSenders(senders, 10)

	if len(ranking) != 3 {
		t.Fatalf("ranking has %d entries, want 3 (empty excluded)", len(ranking))
	}
	if ranking[0].Address != "a@example.com" || ranking[0].Count != 3 {
		t.Errorf("rank 1 = %+v, want a@example.com x3", ranking[0])
	}
	if ranking[1].Address != "b@example.com" || ranking[1].Count != 2 {
		t.Errorf("rank 2 = %+v, want b@example.com x2", ranking[1])
	}
}

func TestRankSendersTieBreak(t *testing.T) {
	// Equal counts rank by first appearance.
	ranking := RankSenders([]string{"x@example.com", "y@example.com"}, 10)
	if ranking[0].Address != "x@example.com" {
		t.Errorf("rank 1 = %s, want x@example.com (appeared first)", ranking[0].Address)
	}
}

func TestRankSendersTruncates(t *testing.T) {
	senders := []string{"a@a.com", "b@b.com", "c@c.com", "d@d.com"}
	ranking := RankSenders(senders, 2)
	if len(ranking) != 2 {
		t.Errorf("ranking has %d entries, want 2", len(ranking))
	}
}

func TestRankSendersEmpty(t *testing.T) {
	if got := RankSenders(nil, 10); len(got) != 0 {
		t.Errorf("RankSenders(nil) = %v, want empty", got)
	}
}
