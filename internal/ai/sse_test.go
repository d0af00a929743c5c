package ai

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func collectData(t *testing.T, r io.Reader) []string {
	t.Helper()
	dec := NewSSEDecoder(r)
	var out []string
	for {
		data, err := dec.NextData()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("next data: %v", err)
		}
		out = append(out, data)
	}
}

func TestSSEDecoder_IgnoresNonDataLines(t *testing.T) {
	stream := ": comment\n" +
		"event: message\n" +
		"data: one\n" +
		"\n" +
		"data: two\n" +
		"\n" +
		"data: [DONE]\n\n"

	got := collectData(t, strings.NewReader(stream))
	want := []string{"one", "two", "[DONE]"}
	if len(got) != len(want) {
		t.Fatalf("payload count: got %d want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("payload %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestSSEDecoder_SplitIndependent(t *testing.T) {
	stream := "data: {\"a\":1}\n\ndata: {\"b\":2}\n\ndata: [DONE]\n\n"

	whole := collectData(t, strings.NewReader(stream))

	// the same byte stream delivered one byte per read must decode to the
	// same payload sequence
	split := collectData(t, iotest.OneByteReader(strings.NewReader(stream)))

	if len(whole) != len(split) {
		t.Fatalf("split changed payload count: %d vs %d", len(whole), len(split))
	}
	for i := range whole {
		if whole[i] != split[i] {
			t.Fatalf("payload %d differs: %q vs %q", i, whole[i], split[i])
		}
	}
}

func TestSSEDecoder_CRLFAndNoTrailingNewline(t *testing.T) {
	stream := "data: one\r\n\r\ndata: two"

	got := collectData(t, strings.NewReader(stream))
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("unexpected payloads: %v", got)
	}
}
