package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	fieldUserID    = "user_id"
	fieldDevice    = "tfa_device"
	fieldCreatedAt = "created_at"
)

// bindDeviceScript sets the device only on a live session so that binding
// never resurrects an expired one without its TTL.
var bindDeviceScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// clearDeviceScript removes the device only while it still holds the given
// persistent id.
var clearDeviceScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
  redis.call("HDEL", KEYS[1], ARGV[1])
  return 1
end
return 0
`)

// Store keeps sessions as redis hashes under "tfa:session:<sid>".
type Store struct {
	client redis.UniversalClient
	prefix string
	ins    instrument.Instrumentation
}

func NewStore(client redis.UniversalClient, ins instrument.Instrumentation) *Store {
	return &Store{
		client: client,
		prefix: "tfa:session:",
		ins:    ins,
	}
}

func (s *Store) key(sid string) string {
	return s.prefix + sid
}

func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("tfa.outbound.session").Start(ctx, name)
}

func (s *Store) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Store) Create(ctx context.Context, sess entity.Session, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { s.endSpan(span, err) }()

	key := s.key(sess.ID)
	values := map[string]any{
		fieldUserID:    strconv.FormatInt(sess.UserID, 10),
		fieldCreatedAt: strconv.FormatInt(sess.CreatedAt.Unix(), 10),
	}
	if sess.DevicePersistentID != "" {
		values[fieldDevice] = sess.DevicePersistentID
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, values)
		p.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *Store) Get(ctx context.Context, sid string) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	values, err := s.client.HGetAll(ctx, s.key(sid)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, goerror.ErrNotFound
	}

	userID, err := strconv.ParseInt(values[fieldUserID], 10, 64)
	if err != nil {
		return nil, errors.New("session: corrupt user id")
	}
	createdAt, err := strconv.ParseInt(values[fieldCreatedAt], 10, 64)
	if err != nil {
		createdAt = 0
	}

	return &entity.Session{
		ID:                 sid,
		UserID:             userID,
		DevicePersistentID: values[fieldDevice],
		CreatedAt:          time.Unix(createdAt, 0).UTC(),
	}, nil
}

func (s *Store) BindDevice(ctx context.Context, sid, persistentID string) (err error) {
	ctx, span := s.startSpan(ctx, "BindDevice")
	defer func() { s.endSpan(span, err) }()

	ok, err := bindDeviceScript.Run(ctx, s.client, []string{s.key(sid)}, fieldDevice, persistentID).Int()
	if err != nil {
		return err
	}
	if ok == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *Store) ClearDevice(ctx context.Context, sid, persistentID string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ClearDevice")
	defer func() { s.endSpan(span, err) }()

	ok, err := clearDeviceScript.Run(ctx, s.client, []string{s.key(sid)}, fieldDevice, persistentID).Int()
	if err != nil {
		return false, err
	}

	return ok == 1, nil
}

func (s *Store) Delete(ctx context.Context, sid string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	return s.client.Del(ctx, s.key(sid)).Err()
}
