package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shortcode string
		kind      PostKind
	}{
		{"post", "https://www.instagram.com/p/ABC123/", "ABC123", PostKindPost},
		{"post without trailing slash", "https://instagram.com/p/ABC123", "ABC123", PostKindPost},
		{"post with query", "https://www.instagram.com/p/ABC123/?igsh=MWZ0cmFt&img_index=2", "ABC123", PostKindPost},
		{"post with username prefix", "https://www.instagram.com/natgeo/p/C1x_y-Z/", "C1x_y-Z", PostKindPost},
		{"reel", "https://www.instagram.com/reel/XYZ/", "XYZ", PostKindReel},
		{"reels", "https://www.instagram.com/reels/Cq9Lm2-Abc/?utm_source=ig_web_copy_link", "Cq9Lm2-Abc", PostKindReel},
		{"tv", "https://www.instagram.com/tv/B_tv123", "B_tv123", PostKindTV},
		{"story", "https://www.instagram.com/stories/someone/3141592653589793238/", "3141592653589793238", PostKindStory},
		{"case is preserved", "https://m.instagram.com/p/AbCdEf/", "AbCdEf", PostKindPost},
		{"surrounding whitespace", "  https://instagram.com/reel/XYZ/  ", "XYZ", PostKindReel},
		{"short domain", "https://instagr.am/p/ABC123", "ABC123", PostKindPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Identify(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.shortcode, id.Shortcode)
			assert.Equal(t, tt.kind, id.Kind)
		})
	}
}

func TestIdentifyRejects(t *testing.T) {
	inputs := []string{
		"",
		"not-a-url",
		"instagram.com/p/ABC123/",
		"ftp://instagram.com/p/ABC123/",
		"https://example.com/p/ABC123/",
		"https://notinstagram.com/p/ABC123/",
		"https://instagr.am.example.com/p/ABC123/",
		"https://www.instagram.com/",
		"https://www.instagram.com/natgeo/",
		"https://www.instagram.com/explore/tags/cats/",
		"https://www.instagram.com/stories/someone/notanumber/",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Identify(input)
			assert.ErrorIs(t, err, ErrNotRecognized)
		})
	}
}

func TestPostURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://instagram.com/p/ABC123", "https://www.instagram.com/p/ABC123/"},
		{"https://www.instagram.com/natgeo/p/ABC123/?x=1", "https://www.instagram.com/p/ABC123/"},
		{"https://www.instagram.com/reels/XYZ/", "https://www.instagram.com/reel/XYZ/"},
		{"https://www.instagram.com/tv/TV1", "https://www.instagram.com/tv/TV1/"},
		{"https://instagr.am/p/ABC123", "https://www.instagram.com/p/ABC123/"},
		{"https://www.instagram.com/stories/someone/123/", "https://www.instagram.com/stories/someone/123/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, err := Identify(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id.PostURL("https://www.instagram.com/"))
		})
	}
}
