package videoid

import (
	"strings"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	id := New()
	if !strings.HasPrefix(id, "vid_") {
		t.Errorf("id = %q, want vid_ prefix", id)
	}
	if len(id) != len("vid_")+26 {
		t.Errorf("id length = %d, want prefix plus 26 ULID chars", len(id))
	}
	if id != strings.ToLower(id) {
		t.Errorf("id = %q, want lowercase", id)
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := New()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s after %d generations", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestNew_ConcurrentUniqueAndValid(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 250

	ids := make(chan string, goroutines*perGoroutine)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				ids <- New()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, goroutines*perGoroutine)
	for id := range ids {
		if !IsValid(id) {
			t.Fatalf("generated id %q is not valid", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s generated concurrently", id)
		}
		seen[id] = struct{}{}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "generated id", value: New(), want: true},
		{name: "missing prefix", value: "01hgw2vq4wz9yrjxv1q8e5m3kd", want: false},
		{name: "wrong prefix", value: "img_01hgw2vq4wz9yrjxv1q8e5m3kd", want: false},
		{name: "not a ulid", value: "vid_hello", want: false},
		{name: "empty", value: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.value); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	id := New()
	parsed, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q): %v", id, err)
	}
	if got := "vid_" + strings.ToLower(parsed.String()); got != id {
		t.Errorf("round trip = %q, want %q", got, id)
	}
}
