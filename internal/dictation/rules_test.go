package dictation

import "testing"

func TestApplyRules(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "um hello comma i think period", want: "Hello, I think."},
		{in: "  what   time is it question mark  ", want: "What time is it?"},
		{in: "the the cat sat", want: "The cat sat."},
		{in: "wow exclamation point that is great", want: "Wow! That is great."},
		{in: "first item new line second item", want: "First item\nSecond item."},
		{in: "intro full stop new paragraph next part", want: "Intro.\n\nNext part."},
		{in: "uh i'm sure i'll go", want: "I'm sure I'll go."},
		{in: "note colon bring milk", want: "Note: bring milk."},
		{in: "hello ,world", want: "Hello, world."},
		{in: "pi is 3.14", want: "Pi is 3.14."},
		{in: "Done!", want: "Done!"},
		{in: "HMM Okay", want: "Okay."},
		{in: "visit example.com today", want: "Visit example.com today."},
		{in: "wait,what", want: "Wait, what."},
	}
	for _, tt := range tests {
		if got := ApplyRules(tt.in); got != tt.want {
			t.Fatalf("ApplyRules(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyRulesEmpty(t *testing.T) {
	if got := ApplyRules("   "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
