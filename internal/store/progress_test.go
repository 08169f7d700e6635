package store

import (
	"io"
	"strings"
	"testing"
)

func TestProgressReader(t *testing.T) {
	t.Run("reports the running byte count", func(t *testing.T) {
		t.Parallel()
		content := "twelve bytes"
		var transferred []int64
		var totals []int64
		r := newProgressReader(strings.NewReader(content), int64(len(content)), func(n, total int64) {
			transferred = append(transferred, n)
			totals = append(totals, total)
		})

		buf := make([]byte, 5)
		if _, err := io.CopyBuffer(io.Discard, r, buf); err != nil {
			t.Fatalf("reading: %v", err)
		}

		if len(transferred) == 0 {
			t.Fatal("expected progress callbacks")
		}
		if got := transferred[len(transferred)-1]; got != int64(len(content)) {
			t.Errorf("final transferred = %d, want %d", got, len(content))
		}
		for i := 1; i < len(transferred); i++ {
			if transferred[i] < transferred[i-1] {
				t.Errorf("transferred went backwards: %v", transferred)
			}
		}
		for _, total := range totals {
			if total != int64(len(content)) {
				t.Errorf("total = %d, want %d", total, len(content))
			}
		}
	})

	t.Run("nil progress leaves the reader untouched", func(t *testing.T) {
		t.Parallel()
		r := strings.NewReader("abc")
		if got := newProgressReader(r, 3, nil); got != io.Reader(r) {
			t.Error("expected the original reader back")
		}
	})
}
