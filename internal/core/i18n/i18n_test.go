package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTranslations(t *testing.T) {
	tests := []struct {
		lang     string
		expected string
	}{
		{"en", "Invalid Instagram URL"},
		{"vi", "URL Instagram không hợp lệ"},
		{"fr", "Invalid Instagram URL"},
		{"", "Invalid Instagram URL"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.expected, T(tt.lang).Errors.InvalidURL)
		})
	}
}

func TestLocalesComplete(t *testing.T) {
	for _, l := range SupportedLanguages {
		t.Run(l.Code, func(t *testing.T) {
			tr, err := loadTranslations(l.Code)
			assert.NoError(t, err)

			e := tr.Errors
			for _, s := range []string{e.InvalidURL, e.InvalidType, e.FetchFailed, e.Timeout, e.ServerError, e.DownloadFailed, e.DownloadError, e.Unauthorized, e.NotFound} {
				assert.NotEmpty(t, s)
			}
			assert.NotEmpty(t, tr.Download.Completed)
			assert.NotEmpty(t, tr.Fetch.Media)
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("vi"))
	assert.False(t, IsSupported("zh"))
}
