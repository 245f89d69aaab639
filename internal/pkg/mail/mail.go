package mail

import (
	"context"
	"io"
)

// Message is a provider-agnostic e-mail. When both bodies are set the
// message is sent as multipart/alternative.
type Message struct {
	// From falls back to the sender configured on the provider.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail delivers messages through a provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
