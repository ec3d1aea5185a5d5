package platform

import (
	"context"
	"errors"
	"testing"

	appErrors "github.com/brandwatch/collector/pkg/errors"
)

func TestFetchAllPages_StopsWhenCursorEmpty(t *testing.T) {
	pages := [][]int{{1, 2}, {3, 4}, {5}}
	calls := 0

	fetcher := func(cursor string) ([]int, string, error) {
		items := pages[calls]
		calls++
		next := ""
		if calls < len(pages) {
			next = "cursor"
		}
		return items, next, nil
	}

	got, err := FetchAllPages(context.Background(), fetcher)
	if err != nil {
		t.Fatalf("FetchAllPages() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d items, want 5", len(got))
	}
	if calls != 3 {
		t.Errorf("fetcher called %d times, want 3", calls)
	}
}

func TestFetchAllPages_PropagatesFetcherError(t *testing.T) {
	wantErr := errors.New("boom")
	fetcher := func(cursor string) ([]int, string, error) {
		return nil, "", wantErr
	}

	_, err := FetchAllPages(context.Background(), fetcher)
	if !errors.Is(err, wantErr) {
		t.Errorf("FetchAllPages() error = %v, want %v", err, wantErr)
	}
}

func TestFetchAllPages_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	fetcher := func(cursor string) ([]int, string, error) {
		calls++
		if calls == 1 {
			cancel()
		}
		return []int{calls}, "cursor", nil
	}

	got, err := FetchAllPages(ctx, fetcher)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FetchAllPages() error = %v, want context.Canceled", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d items before cancellation, want 1", len(got))
	}
}

func TestRetryWithBackoff_StopsAfterMaxRetries(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 2, func() error {
		calls++
		return appErrors.NewRateLimitError("google", 0)
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 3 { // initial attempt + 2 retries
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryWithBackoff_NonRetryableErrorStopsImmediately(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 5, func() error {
		calls++
		return errors.New("not a retryable error type")
	})
	if err == nil {
		t.Fatal("expected the non-retryable error to be returned")
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (non-retryable errors must not be retried)", calls)
	}
}

func TestRetryWithBackoff_StopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 5, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}
