package textutil_test

import (
	"strings"
	"testing"

	"relpack/internal/textutil"
)

func TestSanitizeFileNameReplacesUnsafeCharacters(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Deep Dive", "Deep Dive"},
		{"Song: Part 1/2", "Song_ Part 1_2"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"...Track...", "Track"},
		{"  spaced out  ", "spaced out"},
		{"", "Unknown"},
		{"...", "Unknown"},
		{"???", "___"},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameReservedNames(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"CON", "_CON"},
		{"con", "_con"},
		{"Con.mp3", "_Con.mp3"},
		{"LPT9", "_LPT9"},
		{"COM1.wav", "_COM1.wav"},
		{"CONCERT", "CONCERT"},
		{"NULLIFY", "NULLIFY"},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := textutil.SanitizeFileName(long)
	if len(got) != 200 {
		t.Fatalf("expected 200 characters, got %d", len(got))
	}
}

func TestSanitizeFileNameTruncationExposesReservedName(t *testing.T) {
	// Trimming the truncated tail can leave a bare device name behind.
	in := "CON" + strings.Repeat(".", 197) + "extra text beyond the cap"
	got := textutil.SanitizeFileName(in)
	if got != "_CON" {
		t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, "_CON")
	}
}

func TestSanitizeFileNameProperties(t *testing.T) {
	inputs := []string{
		"normal title", "a/b", "..hidden", "trailing. ", "CON", "",
		strings.Repeat("?", 300), "mixed<>name. ", "\x00control\x1f",
		strings.Repeat("é", 250),
	}
	for _, in := range inputs {
		got := textutil.SanitizeFileName(in)
		if got == "" {
			t.Fatalf("SanitizeFileName(%q) returned empty", in)
		}
		if strings.ContainsAny(got, `<>:"/\|?*`) {
			t.Fatalf("SanitizeFileName(%q) = %q contains unsafe characters", in, got)
		}
		if strings.HasPrefix(got, ".") || strings.HasSuffix(got, ".") {
			t.Fatalf("SanitizeFileName(%q) = %q has leading/trailing dot", in, got)
		}
		if strings.TrimSpace(got) != got {
			t.Fatalf("SanitizeFileName(%q) = %q has leading/trailing whitespace", in, got)
		}
		if n := len([]rune(got)); n > 200 {
			t.Fatalf("SanitizeFileName(%q) produced %d runes", in, n)
		}
	}
}
