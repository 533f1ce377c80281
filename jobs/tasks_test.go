package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

type stubSender struct {
	sent []SendEmailPayload
	err  error
}

func (s *stubSender) Send(ctx context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, SendEmailPayload{To: to, Subject: subject, Body: body})
	return nil
}

func TestSendEmailHandler(t *testing.T) {
	sender := &stubSender{}
	handler := NewSendEmailHandler(sender, nil)

	task, err := NewSendEmailTask(SendEmailPayload{To: "admin@sppg.id", Subject: "Selamat datang di GiziHub", Body: "Halo"})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handler(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "admin@sppg.id" {
		t.Fatalf("expected one delivery to admin@sppg.id, got %v", sender.sent)
	}
}

func TestSendEmailHandlerRetriesOnDeliveryError(t *testing.T) {
	sender := &stubSender{err: errors.New("relay down")}
	handler := NewSendEmailHandler(sender, nil)

	task, _ := NewSendEmailTask(SendEmailPayload{To: "admin@sppg.id"})
	err := handler(context.Background(), task)
	if err == nil {
		t.Fatal("expected error to trigger a retry")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatal("delivery errors must stay retryable")
	}
}

func TestSendEmailHandlerSkipsMalformedPayload(t *testing.T) {
	sender := &stubSender{}
	handler := NewSendEmailHandler(sender, nil)

	task := asynq.NewTask(TaskTypeSendEmail, []byte("{not json"))
	err := handler(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed payload, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("sender must not run on malformed payload")
	}
}
