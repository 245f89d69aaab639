package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 5 * time.Minute
)

// failScript increments the counter and starts the window on the first
// failure only, so later failures do not extend it.
var failScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Limiter counts failed second-factor attempts in a fixed window. Once
// maxAttempts failures are recorded, Allow refuses until the window ends or
// Reset is called.
type Limiter struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int64
	window      time.Duration
	ins         instrument.Instrumentation
}

func New(client redis.UniversalClient, maxAttempts int, window time.Duration, ins instrument.Instrumentation) *Limiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}

	return &Limiter{
		client:      client,
		prefix:      "tfa:attempt:",
		maxAttempts: int64(maxAttempts),
		window:      window,
		ins:         ins,
	}
}

func (l *Limiter) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return l.ins.Tracer("tfa.outbound.limiter").Start(ctx, name)
}

func (l *Limiter) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (l *Limiter) Allow(ctx context.Context, key string) (_ bool, err error) {
	ctx, span := l.startSpan(ctx, "Allow")
	defer func() { l.endSpan(span, err) }()

	n, err := l.client.Get(ctx, l.prefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return n < l.maxAttempts, nil
}

func (l *Limiter) Fail(ctx context.Context, key string) (err error) {
	ctx, span := l.startSpan(ctx, "Fail")
	defer func() { l.endSpan(span, err) }()

	return failScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Err()
}

func (l *Limiter) Reset(ctx context.Context, key string) (err error) {
	ctx, span := l.startSpan(ctx, "Reset")
	defer func() { l.endSpan(span, err) }()

	return l.client.Del(ctx, l.prefix+key).Err()
}
