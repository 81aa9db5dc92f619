package guard

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"script tags stripped", "<script>alert(1)</script>", "alert(1)"},
		{"bare operators escaped", "5 > 3 & 2 < 4", "5 &gt; 3 &amp; 2 &lt; 4"},
		{"quotes escaped", `il a dit "oui" et c'est tout`, "il a dit &quot;oui&quot; et c&#x27;est tout"},
		{"tag with attributes", `<a href="x" onclick='y'>lien</a>`, "lien"},
		{"unterminated tag kept and escaped", "a <b c", "a &lt;b c"},
		{"empty", "", ""},
		{"plain text untouched", "Jean Dupont", "Jean Dupont"},
		{"accents untouched", "Élodie à Noël", "Élodie à Noël"},
		{"stray closing bracket", "x > y", "x &gt; y"},
		{"nested looking tags", "<<b>>bold", "&gt;bold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_RemovesTagsBeforeEscaping(t *testing.T) {
	inputs := []string{
		"<p>Bonjour</p>",
		"avant <img src=x onerror=alert(1)> après",
		"<div><span>x</span></div>",
		"1 <i>2</i> 3 <u>4",
	}
	for _, in := range inputs {
		got := Sanitize(in)
		if strings.ContainsAny(got, "<>") {
			t.Errorf("Sanitize(%q) = %q still contains angle brackets", in, got)
		}
		for _, tag := range tagPattern.FindAllString(in, -1) {
			if strings.Contains(got, entityEscaper.Replace(tag)) {
				t.Errorf("Sanitize(%q) = %q kept an escaped copy of tag %q", in, got, tag)
			}
		}
	}
}

func TestSanitize_NotIdempotent(t *testing.T) {
	once := Sanitize("a & b")
	twice := Sanitize(once)
	if once != "a &amp; b" {
		t.Fatalf("first pass = %q", once)
	}
	if twice != "a &amp;amp; b" {
		t.Errorf("second pass = %q, want re-escaped entity", twice)
	}
}

func TestSanitizeEntries_SkipsReserved(t *testing.T) {
	cfg := DefaultConfig()
	in := []Entry{
		{Name: "name", Value: "<b>Jean</b>"},
		{Name: "_subject", Value: "Nouveau <message>"},
		{Name: "_next", Value: "https://example.com/?a=1&b=2"},
		{Name: "message", Value: "1 < 2"},
		{Name: "_honey", Value: ""},
	}
	want := []Entry{
		{Name: "name", Value: "Jean"},
		{Name: "_subject", Value: "Nouveau <message>"},
		{Name: "_next", Value: "https://example.com/?a=1&b=2"},
		{Name: "message", Value: "1 &lt; 2"},
		{Name: "_honey", Value: ""},
	}

	got := SanitizeEntries(in, cfg.IsReserved)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SanitizeEntries mismatch (-want +got):\n%s", diff)
	}
	if in[0].Value != "<b>Jean</b>" {
		t.Errorf("input slice was modified: %q", in[0].Value)
	}
}
