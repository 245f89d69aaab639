package email

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/mail"
)

type recorder struct {
	sent []mail.Message
	err  error
}

func (r *recorder) Close() error { return nil }

func (r *recorder) Send(_ context.Context, msg mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultsSender", func(t *testing.T) {
		rec := &recorder{}
		m := New(rec, "security@gotfa.local", instrument.NewNoop())

		err := m.Send(ctx, mail.Message{To: []string{"a@example.com"}, Subject: "hi"})

		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if len(rec.sent) != 1 || rec.sent[0].From != "security@gotfa.local" {
			t.Fatalf("sent = %+v", rec.sent)
		}
	})

	t.Run("KeepsExplicitSender", func(t *testing.T) {
		rec := &recorder{}
		m := New(rec, "security@gotfa.local", instrument.NewNoop())

		if err := m.Send(ctx, mail.Message{From: "ops@gotfa.local", To: []string{"a@example.com"}}); err != nil {
			t.Fatalf("send: %v", err)
		}
		if rec.sent[0].From != "ops@gotfa.local" {
			t.Fatalf("from = %q", rec.sent[0].From)
		}
	})

	t.Run("NoRecipient", func(t *testing.T) {
		rec := &recorder{}
		m := New(rec, "security@gotfa.local", instrument.NewNoop())

		if err := m.Send(ctx, mail.Message{Subject: "hi"}); !errors.Is(err, errNoRecipient) {
			t.Fatalf("expected errNoRecipient, got %v", err)
		}
		if len(rec.sent) != 0 {
			t.Fatalf("nothing may be sent")
		}
	})

	t.Run("ProviderError", func(t *testing.T) {
		boom := errors.New("smtp down")
		m := New(&recorder{err: boom}, "", instrument.NewNoop())

		if err := m.Send(ctx, mail.Message{To: []string{"a@example.com"}}); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})
}
