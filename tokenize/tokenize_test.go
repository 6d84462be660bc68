package tokenize

import (
	"bufio"
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		name   string
		text   string
		expect []string
	}{
		{
			name:   "empty",
			text:   "",
			expect: nil,
		},
		{
			name:   "only separators",
			text:   " \t!?.,\n",
			expect: nil,
		},
		{
			name:   "lowercase and punctuation",
			text:   "WINNER!! Claim your £900 prize-now.",
			expect: []string{"winner", "claim", "your", "900", "prize", "now"},
		},
		{
			name:   "apostrophe splits",
			text:   "Don't  call",
			expect: []string{"don", "t", "call"},
		},
		{
			name:   "underscore is a word rune",
			text:   "snake_case word",
			expect: []string{"snake_case", "word"},
		},
		{
			name:   "non-latin letters",
			text:   "Привет, МИР",
			expect: []string{"привет", "мир"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.text)
			if !reflect.DeepEqual(got, tc.expect) {
				t.Errorf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestTokenize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Free entry in 2 a wkly comp to win FA Cup final tkts 21st May 2005.",
		"Ok lar... Joking wif u oni...",
		"U dun say so early hor... U c already then say...",
		"ÀÉÎ ÕÜ -- über_cool!!",
	}

	for _, in := range inputs {
		first := Tokenize(in)
		second := Tokenize(strings.Join(first, " "))

		if !reflect.DeepEqual(first, second) {
			t.Errorf("tokenizing %q is not idempotent: %q != %q", in, first, second)
		}
	}
}

func TestScanTokens(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"hello",
		"Hello, World! ",
		"WINNER!! As a valued network customer you have been selected to receive a £900 prize reward!",
		"größer als 10€ — naïve café",
	}

	for _, in := range inputs {
		got, err := Tokens(strings.NewReader(in))
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if expect := Tokenize(in); !reflect.DeepEqual(got, expect) {
			t.Errorf("scanning %q: expected %q, got %q", in, expect, got)
		}
	}
}

func TestScanTokens_SmallBuffer(t *testing.T) {
	// Forces multi-byte runes to straddle buffer refills
	in := strings.Repeat("größer café ", 20)

	scanner := bufio.NewScanner(strings.NewReader(in))
	scanner.Buffer(make([]byte, 3), 64)
	scanner.Split(ScanTokens)

	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if expect := Tokenize(in); !reflect.DeepEqual(got, expect) {
		t.Errorf("expected %q, got %q", expect, got)
	}
}

func TestTokens_LongToken(t *testing.T) {
	long := strings.Repeat("a", 200*1024)
	in := "win " + long + " MONEY"

	got, err := Tokens(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if expect := Tokenize(in); !reflect.DeepEqual(got, expect) {
		t.Errorf("expected %d tokens, got %d", len(expect), len(got))
	}

	if len(got) != 3 || got[0] != "win" || got[2] != "money" {
		t.Errorf("unexpected tokens around the long one: %d tokens", len(got))
	}
}

func TestTokenize_NoWords(t *testing.T) {
	for _, in := range []string{"", "   ", "!!! ... ---", "\t\n"} {
		if got := Tokenize(in); got != nil {
			t.Errorf("expected nil for %q, got %#v", in, got)
		}
	}
}
