package i18n

import "testing"

func TestNormalise(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		want      string
	}{
		{name: "empty", preferred: "", want: "en"},
		{name: "whitespace", preferred: "   ", want: "en"},
		{name: "exact code", preferred: "de", want: "de"},
		{name: "region tag", preferred: "de-AT", want: "de"},
		{name: "ukrainian", preferred: "uk-UA", want: "uk"},
		{name: "english region", preferred: "en-GB", want: "en"},
		{name: "accept language", preferred: "pl-PL,pl;q=0.9,en;q=0.8", want: "pl"},
		{name: "quality order", preferred: "sk;q=0.3,hu;q=0.9", want: "hu"},
		{name: "skips unsupported", preferred: "fr-FR,cs;q=0.5", want: "cs"},
		{name: "unsupported only", preferred: "fr-FR", want: "en"},
		{name: "unparseable", preferred: "!!not a locale!!", want: "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalise(tt.preferred); got != tt.want {
				t.Errorf("Normalise(%q) = %q, want %q", tt.preferred, got, tt.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	for _, l := range Languages() {
		if !IsSupported(l.Code) {
			t.Errorf("IsSupported(%q) = false, want true", l.Code)
		}
	}
	for _, code := range []string{"", "EN", "de-DE", "fr", "ua"} {
		if IsSupported(code) {
			t.Errorf("IsSupported(%q) = true, want false", code)
		}
	}
}

func TestLanguages(t *testing.T) {
	got := Languages()
	if len(got) != 9 {
		t.Fatalf("len(Languages()) = %d, want 9", len(got))
	}
	if got[0].Code != Fallback || got[0].Label != "English" {
		t.Errorf("Languages()[0] = %+v, want English first", got[0])
	}

	got[0].Code = "xx"
	if Languages()[0].Code != Fallback {
		t.Error("Languages() returned shared backing array")
	}
}
