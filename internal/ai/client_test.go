package ai

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/serhq/estimator/internal/normalizer"
)

func TestSendNormalizesReply(t *testing.T) {
	conv := &Conversation{send: func(ctx context.Context, message string) (string, error) {
		return `{"items":[{"description":"Director of Photography","quantity":1,"rate":1200}],"reasoning":"One day of principal photography."}`, nil
	}}

	result, err := conv.Send(context.Background(), "budget a one day shoot")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Kind != normalizer.KindEstimate {
		t.Fatalf("Expected an estimate result, got %v", result.Kind)
	}
	if len(result.Estimate.Items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(result.Estimate.Items))
	}
}

func TestSendEmptyReply(t *testing.T) {
	conv := &Conversation{send: func(ctx context.Context, message string) (string, error) {
		return "", nil
	}}

	if _, err := conv.Send(context.Background(), "hello"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestSendRefusesOverlappingSends(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	conv := &Conversation{send: func(ctx context.Context, message string) (string, error) {
		close(entered)
		<-release
		return "done", nil
	}}

	firstErr := make(chan error, 1)
	go func() {
		_, err := conv.Send(context.Background(), "first")
		firstErr <- err
	}()

	// The first turn is now pending; every send until it resolves must be
	// refused, not interleaved into the chat history.
	<-entered

	const overlapping = 7
	var wg sync.WaitGroup
	busy := make(chan error, overlapping)
	for i := 0; i < overlapping; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := conv.Send(context.Background(), "overlap")
			busy <- err
		}()
	}
	wg.Wait()
	close(busy)
	for err := range busy {
		if !errors.Is(err, ErrBusy) {
			t.Errorf("Expected ErrBusy for an overlapping send, got %v", err)
		}
	}

	close(release)
	if err := <-firstErr; err != nil {
		t.Fatalf("First send failed: %v", err)
	}

	// A refused send is retryable: the conversation frees up once the
	// pending turn resolves.
	conv.send = func(ctx context.Context, message string) (string, error) {
		return "follow up", nil
	}
	result, err := conv.Send(context.Background(), "retry")
	if err != nil {
		t.Fatalf("Send after completion failed: %v", err)
	}
	if result.Kind != normalizer.KindText {
		t.Errorf("Expected a text result, got %v", result.Kind)
	}
}
