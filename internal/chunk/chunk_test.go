package chunk

import (
	"strings"
	"testing"
)

func TestSplitEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\t"} {
		if got := Split(in, 100); len(got) != 0 {
			t.Errorf("Split(%q) = %v, want no chunks", in, got)
		}
	}
}

func TestSplitShortText(t *testing.T) {
	got := Split("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Fatalf("expected single chunk, got %v", got)
	}
}

func TestSplitParagraphs(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph here.\n   \nThird paragraph here."

	got := Split(text, 45)

	want := []string{
		"First paragraph here.\n\nSecond paragraph here.",
		"Third paragraph here.",
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(got), got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitSentences(t *testing.T) {
	text := "One sentence here. Another sentence there! A third one? Yes."

	got := Split(text, 20)

	want := []string{"One sentence here.", "Another sentence", "there! A third one?", "Yes."}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(got), got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitOversizedWord(t *testing.T) {
	long := strings.Repeat("x", 30)
	text := "tiny " + long + " end"

	got := Split(text, 10)

	want := []string{"tiny", long, "end"}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(got), got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitProperties(t *testing.T) {
	paragraph := "Data is collected when you use the service. We may share it with partners! " +
		"Do you have control? You can opt out at any time by visiting settings."
	texts := []string{
		paragraph,
		strings.Repeat(paragraph+"\n\n", 20),
		strings.Repeat("word ", 500),
		"a\n\nb\n\nc",
		strings.Repeat("supercalifragilistic ", 40) + strings.Repeat("z", 300),
		"Mixed.  Spacing\t\there.\n\n\n\nAnd   more. Final!",
	}
	sizes := []int{1, 5, 16, 64, 200, 3000}

	for _, text := range texts {
		for _, size := range sizes {
			chunks := Split(text, size)

			joined := strings.Join(chunks, " ")
			if strings.Join(strings.Fields(joined), " ") != strings.Join(strings.Fields(text), " ") {
				t.Fatalf("content lost for size %d", size)
			}

			for _, c := range chunks {
				if c == "" {
					t.Fatalf("empty chunk for size %d", size)
				}

				if len(c) > size && len(strings.Fields(c)) != 1 {
					t.Fatalf("chunk of %d bytes exceeds %d and is splittable: %q", len(c), size, c)
				}
			}
		}
	}
}
