package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Incline DB Press!", "incline db press"},
		{"incline db press", "incline db press"},
		{"  Farmer's   Walk ", "farmers walk"},
		{"Farmer’s Walk", "farmers walk"},
		{"Pull-Up (Weighted)", "pull up weighted"},
		{"Développé couché", "developpe couche"},
		{"", ""},
		{"!!!", ""},
		{"3/4 Sit-up", "3 4 sit up"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Incline DB Press!",
		"  Farmer's   Walk ",
		"Développé couché",
		"a--b__c",
		"ÄÖÜ äöü",
		"\t\n",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeCaseAndPunctuationInsensitive(t *testing.T) {
	if Normalize("Incline DB Press!") != Normalize("incline db press") {
		t.Fatal("expected equal normalized forms")
	}
}

func TestAll(t *testing.T) {
	got := All([]string{"Bench", "", "  ", "Flat Bench!"})
	if len(got) != 2 || got[0] != "bench" || got[1] != "flat bench" {
		t.Fatalf("All = %v", got)
	}
}

func TestMatches(t *testing.T) {
	name := Normalize("Barbell Bench Press")
	aliases := All([]string{"Flat Bench", "BB Bench"})

	if !Matches("bench", name, aliases) {
		t.Fatal("expected name match")
	}
	if !Matches("BB-bench", name, aliases) {
		t.Fatal("expected alias match")
	}
	if Matches("squat", name, aliases) {
		t.Fatal("unexpected match")
	}
	if !Matches("  ", name, aliases) {
		t.Fatal("empty query should match")
	}
}
