package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postPageHTML = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">{ broken</script>
<script type="application/ld+json">{"@type":"VideoObject","caption":"ld caption"}</script>
<script>window._sharedData = {"entry_data":{"PostPage":[{"graphql":{"shortcode_media":{"display_url":"https://cdn.test/sd.jpg"}}}]}};</script>
</head><body>
<script>requireLazy(["x"],function(){ var s = {"video_url":"https:\/\/cdn.test\/v.mp4?a=1&b=2","display_url":"https:\/\/cdn.test\/d.jpg"}; });</script>
</body></html>`

const embedPageHTML = `<html><body>
<script>window.__additionalDataLoaded('extra', {"shortcode_media":{"shortcode":"E1","display_url":"https://cdn.test/e.jpg"}});</script>
</body></html>`

func TestPageLinkedData(t *testing.T) {
	p, err := parsePage([]byte(postPageHTML))
	require.NoError(t, err)

	assert.JSONEq(t, `{"@type":"VideoObject","caption":"ld caption"}`, string(p.linkedData()))
}

func TestPageSharedData(t *testing.T) {
	p, err := parsePage([]byte(postPageHTML))
	require.NoError(t, err)

	sd := p.sharedData()
	require.NotNil(t, sd)
	res := SharedDataNormalizer("").Normalize(sd)
	require.NotNil(t, res)
	assert.Equal(t, "https://cdn.test/sd.jpg", res.Media[0].URL)
}

func TestPageInline(t *testing.T) {
	p, err := parsePage([]byte(postPageHTML))
	require.NoError(t, err)

	assert.Equal(t, InlineMedia{
		VideoURL:   "https://cdn.test/v.mp4?a=1&b=2",
		DisplayURL: "https://cdn.test/sd.jpg",
	}, p.inline())
}

func TestPageAdditionalData(t *testing.T) {
	p, err := parsePage([]byte(embedPageHTML))
	require.NoError(t, err)

	assert.JSONEq(t, `{"shortcode_media":{"shortcode":"E1","display_url":"https://cdn.test/e.jpg"}}`, string(p.additionalData()))
	assert.Nil(t, p.linkedData())
	assert.Nil(t, p.sharedData())
	assert.False(t, p.inline().Empty())
}

func TestPageNoMarkers(t *testing.T) {
	p, err := parsePage([]byte(`<html><body><p>Sorry, this page isn't available.</p></body></html>`))
	require.NoError(t, err)

	assert.Nil(t, p.linkedData())
	assert.Nil(t, p.sharedData())
	assert.Nil(t, p.additionalData())
	assert.True(t, p.inline().Empty())
}

func TestInlineStringRejectsNonURL(t *testing.T) {
	assert.Equal(t, "", inlineString(inlineVideoRegex, []byte(`"video_url":"not a url"`)))
	assert.Equal(t, "", inlineString(inlineVideoRegex, []byte(`"video_url":null`)))
}
