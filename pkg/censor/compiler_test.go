package censor

import (
	"testing"

	"censorship/pkg/lang"
)

func TestSubstitutions_Fragments(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		want    string
	}{
		{"single characters", []string{"a", "4", "@"}, `[a4\@]+{!!}`},
		{"multi character option", []string{"f", "ph"}, `(?:f|ph)+{!!}`},
		{"pre-escaped symbol", []string{"s", `\$`, "5"}, `[s\$5]+{!!}`},
		{"pre-escaped symbol in alternation", []string{"s", `\$`, "sch"}, `(?:s|\$|sch)+{!!}`},
		{"symbols in alternation", []string{"o", "()"}, `(?:o|\(\))+{!!}`},
		{"multi-byte single character", []string{"u", "µ"}, `[uµ]+{!!}`},
		{"duplicates", []string{"i", "1", "i"}, `[i1]+{!!}`},
		{"class metacharacters", []string{"-", "^", "]"}, `[\-\^\]]+{!!}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := NewSubstitutions(map[string][]string{"x": tt.options})
			if got := subs["x"].String(); got != tt.want {
				t.Errorf("want fragment %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSeparator_Pattern(t *testing.T) {
	tests := []struct {
		name       string
		separators []string
		want       string
	}{
		{"none", nil, `(?:\s)*?`},
		{"period only", []string{"."}, `(?:\.|\s)*?`},
		{"mixed", []string{"-", ".", "_", " ", "-"}, `(?:[\-\_]|\.|\s)*?`},
		{"invalid entries ignored", []string{"", "ab", "*"}, `(?:[\*]|\s)*?`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewSeparator(tt.separators).Pattern(); got != tt.want {
				t.Errorf("want separator %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSeparator_PeriodsGuarded(t *testing.T) {
	sep := NewSeparator([]string{"."})
	tests := []struct {
		text string
		want bool
	}{
		{"s.h.i.t", true},
		{"shit.", false},
		{"s.!hit", false},
		{"s.éhit", true},
		{"shit", true},
	}
	for _, tt := range tests {
		if got := sep.PeriodsGuarded(tt.text, 0, len(tt.text)); got != tt.want {
			t.Errorf("PeriodsGuarded(%q) = %v; want %v", tt.text, got, tt.want)
		}
	}

	if !NewSeparator(nil).PeriodsGuarded("shit.", 0, 5) {
		t.Error("want periods ignored when period is not a separator")
	}
}

func TestCompiler_LongestKeyFirst(t *testing.T) {
	c := NewCompiler(lang.Config{
		Substitutions: map[string][]string{
			"c":    {"c"},
			"k":    {"k"},
			"/ck/": {"ck", "q"},
		},
	})

	tests := []struct {
		word string
		want string
	}{
		{"fuck", `fu(?:ck|q)+{!!}`},
		{"cock", `[c]+{!!}o(?:ck|q)+{!!}`},
		{"kc", `[k]+{!!}[c]+{!!}`},
		{"FUCK", `fu(?:ck|q)+{!!}`},
		{"a.b", `a\.b`},
	}

	for _, tt := range tests {
		if got := c.Fragment(tt.word).String(); got != tt.want {
			t.Errorf("Fragment(%q) = %s; want %s", tt.word, got, tt.want)
		}
	}
}

func TestCompiler_AccentsStayLiteral(t *testing.T) {
	c := NewCompiler(lang.Config{
		Substitutions: map[string][]string{"e": {"e", "3"}, "t": {"t", "7"}},
	})

	want := `ê[t7]+{!!}r[e3]+{!!}`
	if got := c.Fragment("être").String(); got != want {
		t.Errorf("want fragment %s, got %s", want, got)
	}
}

func TestCompiler_SplicesSeparator(t *testing.T) {
	c := NewCompiler(lang.Config{
		Separators:    []string{"-"},
		Substitutions: map[string][]string{"a": {"a", "@"}},
	})

	want := `[a\@]+(?:[\-]|\s)*?b`
	if got := c.Body("ab"); got != want {
		t.Errorf("want body %s, got %s", want, got)
	}
}

func TestCompiler_Deterministic(t *testing.T) {
	cat, err := lang.Default()
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range cat.Languages() {
		cfg, err := cat.Language(name)
		if err != nil {
			t.Fatal(err)
		}
		first, second := NewCompiler(cfg), NewCompiler(cfg)
		for _, w := range cfg.Profanities {
			if a, b := first.Body(w), second.Body(w); a != b {
				t.Errorf("%s: %q compiled to %s and %s", name, w, a, b)
			}
		}
	}
}

func TestBuildSet_AllLanguagesCompile(t *testing.T) {
	cat, err := lang.Default()
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range cat.Languages() {
		cfg, err := cat.Language(name)
		if err != nil {
			t.Fatal(err)
		}
		set, err := BuildSet(cfg)
		if err != nil {
			t.Fatalf("%s: failed to build set: %v", name, err)
		}
		if set.Len() != len(cfg.Profanities) {
			t.Errorf("%s: want %d expressions, got %d", name, len(cfg.Profanities), set.Len())
		}
		for i := 1; i < len(set.ordered); i++ {
			if runeLen(set.ordered[i-1].Word) < runeLen(set.ordered[i].Word) {
				t.Errorf("%s: %q ordered before longer %q", name, set.ordered[i-1].Word, set.ordered[i].Word)
			}
		}
	}
}

func TestRestoreSet_FillsMissingWords(t *testing.T) {
	cfg := lang.Config{Language: "test", Profanities: []string{"foo", "bar"}}
	set, err := RestoreSet(cfg, map[string]string{"foo": "f+oo"})
	if err != nil {
		t.Fatal(err)
	}

	foo, ok := set.Expression("foo")
	if !ok || foo.Body != "f+oo" {
		t.Errorf("want cached body kept for foo, got %+v", foo)
	}
	bar, ok := set.Expression("bar")
	if !ok || bar.Body != NewCompiler(cfg).Body("bar") {
		t.Errorf("want compiled body for bar, got %+v", bar)
	}
}
