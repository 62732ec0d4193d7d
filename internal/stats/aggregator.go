// Package stats aggregates mailbox counts and sender rankings.
package stats

import (
	"context"
	"log/slog"
	"sort"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mnohosten/mailbridge/internal/logging"
	"github.com/mnohosten/mailbridge/internal/model"
)

// topSenderCount bounds the ranking length.
const topSenderCount = 10

// Mailbox is the slice of a mailbox session the aggregator needs.
type Mailbox interface {
	Status(ctx context.Context, folder string) (total, unseen int, err error)
	SearchUIDs(ctx context.Context, criteria *imap.SearchCriteria) ([]imap.UID, error)
	Fetch(ctx context.Context, uids []imap.UID, withBody bool) ([]*imapclient.FetchMessageBuffer, error)
}

// Aggregator computes mailbox statistics. Totals come from STATUS, so
// they cover the whole mailbox exactly; the top-senders ranking scans
// only the most recent window messages to bound the fetch cost.
type Aggregator struct {
	window     int
	sentFolder string
	logger     *slog.Logger
}

// NewAggregator creates an aggregator scanning the given recent window.
func NewAggregator(window int, sentFolder string, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		window:     window,
		sentFolder: sentFolder,
		logger:     logging.WithComponent(logger, "stats"),
	}
}

// GetStatistics scans the mailbox and returns aggregate counts.
func (a *Aggregator) GetStatistics(ctx context.Context, mbox Mailbox) (*model.Statistics, error) {
	total, unseen, err := mbox.Status(ctx, "INBOX")
	if err != nil {
		return nil, err
	}

	stats := &model.Statistics{
		TotalEmails:  total,
		UnreadEmails: unseen,
		ReadEmails:   total - unseen,
		TopSenders:   []model.SenderCount{},
	}

	// A missing Sent folder is not an error; the count stays zero.
	if sent, _, err := mbox.Status(ctx, a.sentFolder); err == nil {
		stats.SentEmails = sent
	} else {
		a.logger.Debug("sent folder status unavailable", "folder", a.sentFolder, "error", err)
	}

	senders, err := a.scanSenders(ctx, mbox)
	if err != nil {
		return nil, err
	}
	stats.TopSenders = RankSenders(senders, topSenderCount)

	return stats, nil
}

// scanSenders fetches envelopes for the most recent window messages
// and returns their sender addresses, newest first. Messages without a
// sender yield an empty string and are skipped by the ranking.
func (a *Aggregator) scanSenders(ctx context.Context, mbox Mailbox) ([]string, error) {
	uids, err := mbox.SearchUIDs(ctx, &imap.SearchCriteria{})
	if err != nil {
		return nil, err
	}
	if len(uids) > a.window {
		uids = uids[len(uids)-a.window:]
	}

	bufs, err := mbox.Fetch(ctx, uids, false)
	if err != nil {
		return nil, err
	}

	// Newest first, so first-seen tie-breaking is deterministic.
	sort.Slice(bufs, func(i, j int) bool { return bufs[i].UID > bufs[j].UID })

	senders := make([]string, 0, len(bufs))
	for _, buf := range bufs {
		var from string
		if buf.Envelope != nil && len(buf.Envelope.From) > 0 {
			from = buf.Envelope.From[0].Addr()
		}
		senders = append(senders, from)
	}
	return senders, nil
}

// RankSenders tallies address frequencies and returns the top n,
// descending by count, ties broken by first appearance. Empty
// addresses are excluded.
func RankSenders(senders []string, n int) []model.SenderCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for i, addr := range senders {
		if addr == "" {
			continue
		}
		if _, ok := counts[addr]; !ok {
			firstSeen[addr] = i
		}
		counts[addr]++
	}

	ranking := make([]model.SenderCount, 0, len(counts))
	for addr, count := range counts {
		ranking = append(ranking, model.SenderCount{Address: addr, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return firstSeen[ranking[i].Address] < firstSeen[ranking[j].Address]
	})

	if len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}
