package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
)

func TestScheduleValidation(t *testing.T) {
	s := NewScheduler(discardLogger())

	if _, err := s.Schedule(model.SendRequest{}, time.Now()); !errors.Is(err, mailerr.ErrValidation) {
		t.Errorf("Schedule() without recipients = %v, want ErrValidation", err)
	}
	if _, err := s.Schedule(model.SendRequest{To: []string{"a@example.com"}}, time.Time{}); !errors.Is(err, mailerr.ErrValidation) {
		t.Errorf("Schedule() with zero time = %v, want ErrValidation", err)
	}
}

func TestScheduleAndList(t *testing.T) {
	s := NewScheduler(discardLogger())
	at := time.Now().Add(time.Hour)

	first, err := s.Schedule(model.SendRequest{To: []string{"a@example.com"}, Subject: "one"}, at)
	if err != nil {
		t.Fatalf("Schedule() returned %v", err)
	}
	second, err := s.Schedule(model.SendRequest{To: []string{"b@example.com"}, Subject: "two"}, at)
	if err != nil {
		t.Fatalf("Schedule() returned %v", err)
	}

	if first.Status != StatusPending {
		t.Errorf("new record status = %s, want pending", first.Status)
	}

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("List() has %d records, want 2", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Error("List() is not in creation order")
	}
}

func TestCancel(t *testing.T) {
	s := NewScheduler(discardLogger())

	item, _ := s.Schedule(model.SendRequest{To: []string{"a@example.com"}}, time.Now().Add(time.Hour))

	if err := s.Cancel(item.ID); err != nil {
		t.Fatalf("Cancel() returned %v", err)
	}
	if got := s.List()[0].Status; got != StatusCancelled {
		t.Errorf("status after cancel = %s, want cancelled", got)
	}

	// Cancelling twice is rejected.
	if err := s.Cancel(item.ID); !errors.Is(err, mailerr.ErrValidation) {
		t.Errorf("second Cancel() = %v, want ErrValidation", err)
	}

	if err := s.Cancel("no-such-id"); !errors.Is(err, mailerr.ErrNotFound) {
		t.Errorf("Cancel(unknown) = %v, want ErrNotFound", err)
	}
}

func TestDispatchDueSendsOnlyDue(t *testing.T) {
	s := NewScheduler(discardLogger())
	now := time.Now()

	due, _ := s.Schedule(model.SendRequest{To: []string{"due@example.com"}}, now.Add(-time.Minute))
	future, _ := s.Schedule(model.SendRequest{To: []string{"future@example.com"}}, now.Add(time.Hour))

	var sentTo []string
	processed := s.DispatchDue(context.Background(), now, func(ctx context.Context, req *model.SendRequest) (string, error) {
		sentTo = append(sentTo, req.To[0])
		return "<id@example.com>", nil
	})

	if len(processed) != 1 || processed[0].ID != due.ID {
		t.Fatalf("processed %d records, want only the due one", len(processed))
	}
	if processed[0].Status != StatusSent {
		t.Errorf("processed status = %s, want sent", processed[0].Status)
	}
	if processed[0].MessageID != "<id@example.com>" {
		t.Errorf("MessageID = %q, want the send result", processed[0].MessageID)
	}
	if processed[0].SentAt == nil {
		t.Error("SentAt not recorded")
	}
	if len(sentTo) != 1 || sentTo[0] != "due@example.com" {
		t.Errorf("send invoked for %v, want [due@example.com]", sentTo)
	}

	for _, item := range s.List() {
		if item.ID == future.ID && item.Status != StatusPending {
			t.Errorf("future record status = %s, want still pending", item.Status)
		}
	}
}

func TestDispatchDueFailureIsRecordedNotRetried(t *testing.T) {
	s := NewScheduler(discardLogger())
	now := time.Now()

	if _, err := s.Schedule(model.SendRequest{To: []string{"a@example.com"}}, now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	calls := 0
	fail := func(ctx context.Context, req *model.SendRequest) (string, error) {
		calls++
		return "", errors.New("smtp rejected")
	}

	processed := s.DispatchDue(context.Background(), now, fail)
	if len(processed) != 1 || processed[0].Status != StatusFailed {
		t.Fatalf("processed = %+v, want one failed record", processed)
	}
	if processed[0].LastError == "" {
		t.Error("LastError not recorded")
	}

	// A second run must not touch the failed record.
	processed = s.DispatchDue(context.Background(), now, fail)
	if len(processed) != 0 {
		t.Errorf("second run processed %d records, want 0", len(processed))
	}
	if calls != 1 {
		t.Errorf("send invoked %d times, want 1", calls)
	}
}

func TestDispatchDueSkipsCancelled(t *testing.T) {
	s := NewScheduler(discardLogger())
	now := time.Now()

	item, _ := s.Schedule(model.SendRequest{To: []string{"a@example.com"}}, now.Add(-time.Minute))
	if err := s.Cancel(item.ID); err != nil {
		t.Fatal(err)
	}

	processed := s.DispatchDue(context.Background(), now, func(ctx context.Context, req *model.SendRequest) (string, error) {
		t.Error("send invoked for a cancelled record")
		return "", nil
	})
	if len(processed) != 0 {
		t.Errorf("processed %d records, want 0", len(processed))
	}
}

func TestDispatchDueCancelledMidSendStaysCancelled(t *testing.T) {
	s := NewScheduler(discardLogger())
	now := time.Now()

	item, _ := s.Schedule(model.SendRequest{To: []string{"a@example.com"}}, now.Add(-time.Minute))

	processed := s.DispatchDue(context.Background(), now, func(ctx context.Context, req *model.SendRequest) (string, error) {
		if err := s.Cancel(item.ID); err != nil {
			t.Fatalf("Cancel() during send returned %v", err)
		}
		return "<id@example.com>", nil
	})

	if len(processed) != 0 {
		t.Errorf("processed %d records, want 0 for a mid-send cancellation", len(processed))
	}
	if got := s.List()[0]; got.Status != StatusCancelled || got.MessageID != "" {
		t.Errorf("record = %s/%q, cancellation must not be overwritten", got.Status, got.MessageID)
	}
}
