package stacktrace

import (
	"slices"
	"testing"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/gotfa/internal/pkg/goroutine.(*Manager).Go.func1.1()
	/src/gotfa/internal/pkg/goroutine/goroutine.go:62 +0x4f
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:792 +0x132
github.com/shandysiswandi/gotfa/internal/tfa/usecase.(*Usecase).DisableTFA(...)
	/src/gotfa/internal/tfa/usecase/tfa_disable.go:40
`)

	got := InternalPaths(stack)

	want := []string{
		"internal/pkg/goroutine/goroutine.go:62",
		"internal/tfa/usecase/tfa_disable.go:40",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("paths = %v", got)
	}
	if InternalPaths(nil) != nil {
		t.Fatalf("empty stack must give no paths")
	}
}
