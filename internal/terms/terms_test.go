package terms

import (
	"testing"

	"pgregory.net/rapid"
)

func TestTokens(t *testing.T) {
	got := Tokens("What is the Admission-fee, for 2024?")
	want := []string{"what", "is", "the", "admission", "fee", "for", "2024"}
	if len(got) != len(want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokensKeepsIndicMarks(t *testing.T) {
	got := Tokens("फीस कितनी है?")
	if len(got) != 3 || got[0] != "फीस" || got[1] != "कितनी" {
		t.Errorf("Tokens split Devanagari incorrectly: %q", got)
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords("What is the admission fee? The admission FEE!")
	want := []string{"admission", "fee"}
	if len(got) != len(want) {
		t.Fatalf("Keywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keywords[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDice(t *testing.T) {
	a := Trigrams("admission fee")
	if d := Dice(a, a); d != 1 {
		t.Errorf("Dice(a, a) = %v, want 1", d)
	}
	if d := Dice(a, Trigrams("hostel rooms")); d >= 0.3 {
		t.Errorf("unrelated texts should score low, got %v", d)
	}
	if d := Dice(map[string]int{}, map[string]int{}); d != 0 {
		t.Errorf("Dice of empty sets = %v, want 0", d)
	}
}

func TestDiceBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.String().Draw(rt, "a")
		b := rapid.String().Draw(rt, "b")
		d := Dice(Trigrams(a), Trigrams(b))
		if d < 0 || d > 1 {
			rt.Fatalf("Dice out of range: %v", d)
		}
		if d != Dice(Trigrams(b), Trigrams(a)) {
			rt.Fatalf("Dice not symmetric for %q, %q", a, b)
		}
	})
}
