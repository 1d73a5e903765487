package optimizer

import "testing"

func TestRemoveNegativeWords(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		words []string
		want  string
	}{
		{"case insensitive", "DROPSHIPPING is great", []string{"dropshipping"}, "is great"},
		{"whole word only", "Dropshipping is great", []string{"drop"}, "Dropshipping is great"},
		{"mid sentence", "A cheap wholesale bargain", []string{"wholesale"}, "A cheap bargain"},
		{"multiple words", "cheap cheap product", []string{"cheap"}, "product"},
		{"no words", "unchanged text", nil, "unchanged text"},
		{"empty text", "", []string{"cheap"}, ""},
		{"blank entries skipped", "still here", []string{"  ", ""}, "still here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoveNegativeWords(tt.text, tt.words)
			if got != tt.want {
				t.Errorf("RemoveNegativeWords(%q, %v) = %q, want %q", tt.text, tt.words, got, tt.want)
			}
		})
	}
}

func TestSanitizeResponse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "Red Cotton Shirt", "Red Cotton Shirt"},
		{"surrounding whitespace", "  Red Cotton Shirt \n", "Red Cotton Shirt"},
		{"double quotes stripped", `"Red Cotton Shirt"`, "Red Cotton Shirt"},
		{"single quotes stripped", "'Red Cotton Shirt'", "Red Cotton Shirt"},
		{"code fence stripped", "```\nRed Cotton Shirt\n```", "Red Cotton Shirt"},
		{"fence with language tag", "```html\n<p>Hi</p>\n```", "<p>Hi</p>"},
		{"unmatched quote kept", `"Red Cotton Shirt`, `"Red Cotton Shirt`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeResponse(tt.text, nil)
			if got != tt.want {
				t.Errorf("SanitizeResponse(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSanitizeResponse_AppliesNegativeWords(t *testing.T) {
	got := SanitizeResponse(`"Premium drop shipped shirt"`, []string{"drop shipped"})
	if got != "Premium shirt" {
		t.Errorf("got %q, want %q", got, "Premium shirt")
	}
}
