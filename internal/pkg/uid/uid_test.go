package uid

import (
	"testing"

	"github.com/google/uuid"
)

func TestSnowflake(t *testing.T) {
	gen, err := NewSnowflake(1)
	if err != nil {
		t.Fatalf("new snowflake: %v", err)
	}

	seen := make(map[int64]struct{}, 1000)
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		id := gen.Generate()
		if id <= prev {
			t.Fatalf("ids not increasing: %d after %d", id, prev)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
		prev = id
	}

	if _, err := NewSnowflake(5000); err == nil {
		t.Fatal("expected error for out of range node")
	}
}

func TestUUID(t *testing.T) {
	var gen StringID = NewUUID()

	id := gen.Generate()
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("version = %d", parsed.Version())
	}
	if id == gen.Generate() {
		t.Fatal("expected unique ids")
	}
}
