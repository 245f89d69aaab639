package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client, instrument.NewNoop()), mr
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	created := time.Unix(1700000000, 0).UTC()

	t.Run("CreateAndGet", func(t *testing.T) {
		// Arrange
		s, mr := newStore(t)

		// Act
		err := s.Create(ctx, entity.Session{ID: "sid-1", UserID: 7, CreatedAt: created}, time.Hour)

		// Assert
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := s.Get(ctx, "sid-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.UserID != 7 || got.DevicePersistentID != "" || !got.CreatedAt.Equal(created) {
			t.Fatalf("session = %+v", got)
		}
		if ttl := mr.TTL("tfa:session:sid-1"); ttl != time.Hour {
			t.Fatalf("ttl = %s", ttl)
		}
	})

	t.Run("ExpiredIsNotFound", func(t *testing.T) {
		s, mr := newStore(t)
		if err := s.Create(ctx, entity.Session{ID: "sid-1", UserID: 7, CreatedAt: created}, time.Minute); err != nil {
			t.Fatalf("create: %v", err)
		}

		mr.FastForward(2 * time.Minute)
		_, err := s.Get(ctx, "sid-1")

		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := s.BindDevice(ctx, "sid-1", "totp/1"); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("binding an expired session must fail, got %v", err)
		}
		if mr.Exists("tfa:session:sid-1") {
			t.Fatalf("binding must not resurrect the session")
		}
	})

	t.Run("BindAndClearDevice", func(t *testing.T) {
		s, _ := newStore(t)
		if err := s.Create(ctx, entity.Session{ID: "sid-1", UserID: 7, CreatedAt: created}, time.Hour); err != nil {
			t.Fatalf("create: %v", err)
		}

		if err := s.BindDevice(ctx, "sid-1", "totp/1"); err != nil {
			t.Fatalf("bind: %v", err)
		}
		got, _ := s.Get(ctx, "sid-1")
		if got.DevicePersistentID != "totp/1" {
			t.Fatalf("device = %q", got.DevicePersistentID)
		}

		other, err := s.ClearDevice(ctx, "sid-1", "totp/2")
		if err != nil || other {
			t.Fatalf("clearing another id = %v, %v", other, err)
		}
		cleared, err := s.ClearDevice(ctx, "sid-1", "totp/1")
		if err != nil || !cleared {
			t.Fatalf("clear = %v, %v", cleared, err)
		}
		got, _ = s.Get(ctx, "sid-1")
		if got.DevicePersistentID != "" || got.UserID != 7 {
			t.Fatalf("session = %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s, _ := newStore(t)
		if err := s.Create(ctx, entity.Session{ID: "sid-1", UserID: 7, CreatedAt: created}, time.Hour); err != nil {
			t.Fatalf("create: %v", err)
		}

		if err := s.Delete(ctx, "sid-1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.Delete(ctx, "sid-1"); err != nil {
			t.Fatalf("second delete: %v", err)
		}
		if _, err := s.Get(ctx, "sid-1"); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
