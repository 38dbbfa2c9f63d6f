package extractor

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// ItemNormalizer handles the mobile API media item (video_versions,
// image_versions2, carousel_media) located at Path inside the payload.
type ItemNormalizer struct {
	Path      string
	Shortcode string
}

type apiItem struct {
	Code          string `json:"code"`
	VideoVersions []struct {
		URL string `json:"url"`
	} `json:"video_versions"`
	ImageVersions2 struct {
		Candidates []struct {
			URL string `json:"url"`
		} `json:"candidates"`
	} `json:"image_versions2"`
	CarouselMedia []apiItem `json:"carousel_media"`
	// caption is null for posts without one
	Caption *struct {
		Text string `json:"text"`
	} `json:"caption"`
	User struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
	} `json:"user"`
}

func (n ItemNormalizer) Normalize(payload []byte) *Result {
	if !gjson.ValidBytes(payload) {
		return nil
	}
	raw := gjson.GetBytes(payload, n.Path)
	if !raw.IsObject() {
		return nil
	}

	var it apiItem
	if err := json.Unmarshal([]byte(raw.Raw), &it); err != nil {
		return nil
	}

	item := it.rawItem()
	item.Username = it.User.Username
	item.AuthorName = it.User.FullName
	item.Shortcode = it.Code
	if it.Caption != nil {
		item.Caption = it.Caption.Text
	}
	if item.Shortcode == "" {
		item.Shortcode = n.Shortcode
	}
	for i := range it.CarouselMedia {
		item.Children = append(item.Children, it.CarouselMedia[i].rawItem())
	}
	return classify(item)
}

func (it *apiItem) rawItem() rawItem {
	var item rawItem
	for _, v := range it.VideoVersions {
		item.Videos = appendNonEmpty(item.Videos, v.URL)
	}
	for _, c := range it.ImageVersions2.Candidates {
		item.Images = appendNonEmpty(item.Images, c.URL)
	}
	return item
}

// OEmbedNormalizer handles the public oEmbed document. It only ever knows a
// thumbnail, so the result is always a single-image "post".
type OEmbedNormalizer struct {
	Shortcode string
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (n OEmbedNormalizer) Normalize(payload []byte) *Result {
	var data oembedResponse
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil
	}

	res := classify(rawItem{
		Images:     appendNonEmpty(nil, data.ThumbnailURL),
		Caption:    data.Title,
		AuthorName: data.AuthorName,
		Shortcode:  n.Shortcode,
	})
	if res == nil {
		return nil
	}
	res.Type = ContentTypePost
	return res
}
