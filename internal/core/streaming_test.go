package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestWrapInput(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...),
			expected: "hello,world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM is invalid UTF-8",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: "��abc",
		},
		{
			name:     "invalid byte mid-field",
			input:    []byte{'c', 'a', 0xFF, 'f', 0xC3, 0xA9},
			expected: "ca�fé",
		},
		{
			name:     "multi-byte runes kept",
			input:    []byte("naïve,\U0001F600"),
			expected: "naïve,\U0001F600",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := wrapInput(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			result, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
			if r.BytesRead() != int64(len(tt.expected)) {
				t.Errorf("BytesRead() = %d, want %d", r.BytesRead(), len(tt.expected))
			}
		})
	}
}

func TestSanitizerSmallBuffers(t *testing.T) {
	input := strings.Repeat("é\U0001F600x", 50)
	r, err := wrapInput(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(iotest.OneByteReader(r))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != input {
		t.Errorf("one-byte reads corrupted input: got %d bytes, want %d", len(got), len(input))
	}
}

func TestWrapInputReadError(t *testing.T) {
	_, err := wrapInput(iotest.ErrReader(io.ErrClosedPipe))
	if err == nil {
		t.Fatal("expected error from failing reader")
	}
}
