package s3

import (
	"strings"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{prefix: "", key: "images/a.png", want: "images/a.png"},
		{prefix: "assets/", key: "/images/a.png", want: "assets/images/a.png"},
		{prefix: normalizePrefix(" /prod/assets/ "), key: "images/a.png", want: "prod/assets/images/a.png"},
		{prefix: "assets", key: "", want: "assets"},
	}
	for _, tt := range tests {
		if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
			t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}

func TestCountingReader(t *testing.T) {
	cr := &countingReader{r: strings.NewReader("hello world")}
	buf := make([]byte, 4)
	for {
		if _, err := cr.Read(buf); err != nil {
			break
		}
	}
	if cr.n != 11 {
		t.Fatalf("counted %d bytes, want 11", cr.n)
	}
}
