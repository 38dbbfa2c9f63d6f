package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errExpected = errors.New("test: expected error")

type mockStrategy struct {
	mock.Mock
	name string
}

func (m *mockStrategy) Name() string {
	return m.name
}

func (m *mockStrategy) Attempt(ctx context.Context, id Identifier) (*Result, error) {
	args := m.Called(ctx, id.Shortcode)
	res, _ := args.Get(0).(*Result)
	return res, args.Error(1)
}

// blockingStrategy waits for its context to end
type blockingStrategy struct {
	name string
}

func (b *blockingStrategy) Name() string {
	return b.name
}

func (b *blockingStrategy) Attempt(ctx context.Context, _ Identifier) (*Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type eventLog struct {
	mu     sync.Mutex
	events []AttemptEvent
}

func (l *eventLog) observe(_ context.Context, ev AttemptEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func sampleResult(shortcode string) *Result {
	return &Result{
		Type:      ContentTypeImage,
		Author:    UnknownAuthor,
		Thumbnail: "https://cdn.test/a.jpg",
		Media:     []MediaItem{{Kind: MediaKindImage, URL: "https://cdn.test/a.jpg"}},
		Shortcode: shortcode,
	}
}

func TestResolveShortCircuits(t *testing.T) {
	const n = 4
	for k := 0; k < n; k++ {
		t.Run(fmt.Sprintf("strategy %d succeeds", k+1), func(t *testing.T) {
			mocks := make([]*mockStrategy, n)
			steps := make([]Step, n)
			for i := range mocks {
				mocks[i] = &mockStrategy{name: fmt.Sprintf("s%d", i+1)}
				switch {
				case i < k:
					mocks[i].On("Attempt", mock.Anything, "ABC123").Return(nil, errExpected)
				case i == k:
					mocks[i].On("Attempt", mock.Anything, "ABC123").Return(sampleResult("ABC123"), nil)
				}
				steps[i] = Step{Strategy: mocks[i], Timeout: time.Second}
			}

			log := &eventLog{}
			ex := NewInstagramExtractor(steps, log.observe)
			res, err := ex.Extract(context.Background(), "https://instagram.com/p/ABC123/")
			require.NoError(t, err)
			assert.Equal(t, sampleResult("ABC123"), res)

			for i, m := range mocks {
				if i <= k {
					m.AssertNumberOfCalls(t, "Attempt", 1)
				} else {
					m.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
				}
			}

			require.Len(t, log.events, k+1)
			for i := 0; i < k; i++ {
				assert.Equal(t, OutcomeFailure, log.events[i].Outcome)
			}
			assert.Equal(t, OutcomeSuccess, log.events[k].Outcome)
			assert.Equal(t, "ABC123", log.events[k].Shortcode)
			assert.NoError(t, log.events[k].Err)
		})
	}
}

func TestResolveExhausted(t *testing.T) {
	statusFail := &mockStrategy{name: "page"}
	statusFail.On("Attempt", mock.Anything, "XYZ").Return(nil, &StatusError{Status: http.StatusTooManyRequests, URL: "https://www.instagram.com/reel/XYZ/"})
	emptyResult := &mockStrategy{name: "embed"}
	emptyResult.On("Attempt", mock.Anything, "XYZ").Return(nil, nil)
	plainFail := &mockStrategy{name: "oembed"}
	plainFail.On("Attempt", mock.Anything, "XYZ").Return(nil, errExpected)

	log := &eventLog{}
	ex := NewInstagramExtractor([]Step{
		{Strategy: statusFail, Timeout: time.Second},
		{Strategy: emptyResult, Timeout: time.Second},
		{Strategy: plainFail, Timeout: time.Second},
	}, log.observe)

	res, err := ex.Extract(context.Background(), "https://www.instagram.com/reel/XYZ")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrExhausted)

	require.Len(t, log.events, 3)
	assert.Equal(t, http.StatusTooManyRequests, log.events[0].Status)

	var se *StrategyError
	require.ErrorAs(t, log.events[0].Err, &se)
	assert.Equal(t, "page", se.Strategy)
	assert.Equal(t, http.StatusTooManyRequests, se.Status)

	assert.ErrorIs(t, log.events[1].Err, errNoPayload)
	assert.ErrorIs(t, log.events[2].Err, errExpected)
	for _, ev := range log.events {
		assert.Equal(t, OutcomeFailure, ev.Outcome)
		assert.Equal(t, "XYZ", ev.Shortcode)
	}
}

func TestExtractRejectsWithoutCalls(t *testing.T) {
	m := &mockStrategy{name: "page"}
	log := &eventLog{}
	ex := NewInstagramExtractor([]Step{{Strategy: m, Timeout: time.Second}}, log.observe)

	for _, input := range []string{"not-a-url", "https://example.com/p/ABC123/", ""} {
		res, err := ex.Extract(context.Background(), input)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrNotRecognized)
	}

	m.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
	assert.Empty(t, log.events)
}

func TestResolveStepTimeoutFallsThrough(t *testing.T) {
	next := &mockStrategy{name: "oembed"}
	next.On("Attempt", mock.Anything, "ABC123").Return(sampleResult("ABC123"), nil)

	log := &eventLog{}
	ex := NewInstagramExtractor([]Step{
		{Strategy: &blockingStrategy{name: "page"}, Timeout: 20 * time.Millisecond},
		{Strategy: next, Timeout: time.Second},
	}, log.observe)

	res, err := ex.Extract(context.Background(), "https://instagram.com/p/ABC123/")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", res.Shortcode)

	require.Len(t, log.events, 2)
	assert.Equal(t, OutcomeTimeout, log.events[0].Outcome)
	assert.ErrorIs(t, log.events[0].Err, context.DeadlineExceeded)
	assert.Equal(t, OutcomeSuccess, log.events[1].Outcome)
}

func TestResolveParentDeadlineAborts(t *testing.T) {
	next := &mockStrategy{name: "oembed"}

	ex := NewInstagramExtractor([]Step{
		{Strategy: &blockingStrategy{name: "page"}, Timeout: 10 * time.Second},
		{Strategy: next, Timeout: time.Second},
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := ex.Extract(ctx, "https://instagram.com/p/ABC123/")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrExhausted)
	next.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
}

func TestResolveCanceledBeforeStart(t *testing.T) {
	m := &mockStrategy{name: "page"}
	ex := NewInstagramExtractor([]Step{{Strategy: m, Timeout: time.Second}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.Extract(ctx, "https://instagram.com/p/ABC123/")
	assert.ErrorIs(t, err, context.Canceled)
	m.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	_, err := New(Options{Strategies: []string{"page", "scrape-harder"}}, nil)
	assert.ErrorContains(t, err, "scrape-harder")

	_, err = New(Options{Strategies: []string{"page", "page"}}, nil)
	assert.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	ex, err := New(Options{Timeouts: map[string]time.Duration{"embed": 3 * time.Second}}, nil)
	require.NoError(t, err)

	require.Len(t, ex.steps, len(DefaultOrder))
	for i, step := range ex.steps {
		assert.Equal(t, DefaultOrder[i], step.Strategy.Name())
	}
	assert.Equal(t, 20*time.Second, ex.steps[0].Timeout)
	assert.Equal(t, 3*time.Second, ex.steps[1].Timeout)
	assert.Equal(t, 8*time.Second, ex.steps[len(ex.steps)-1].Timeout)
}

// upstream is a fake Instagram that records every request it receives
type upstream struct {
	mu       sync.Mutex
	requests []string
	srv      *httptest.Server
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.requests = append(u.requests, r.Method+" "+r.URL.RequestURI())
		u.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) extractor(t *testing.T, strategies ...string) *InstagramExtractor {
	ex, err := New(Options{
		Strategies: strategies,
		Endpoints:  &Endpoints{Web: u.srv.URL, API: u.srv.URL},
		HTTPClient: u.srv.Client(),
	}, nil)
	require.NoError(t, err)
	return ex
}

func (u *upstream) calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.requests...)
}

func TestScenarioPageVideo(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p/ABC123/" {
			http.NotFound(w, r)
			return
		}
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Equal(t, "navigate", r.Header.Get("Sec-Fetch-Mode"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"VideoObject","caption":"clip","author":{"name":"bob"}}</script>
</head><body><script>var d = {"video_url":"https:\/\/cdn.test\/clip.mp4","display_url":"https:\/\/cdn.test\/clip.jpg"};</script></body></html>`)
	})

	res, err := up.extractor(t).Extract(context.Background(), "https://instagram.com/p/ABC123/")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeVideo, res.Type)
	require.Len(t, res.Media, 1)
	assert.Equal(t, MediaKindVideo, res.Media[0].Kind)
	assert.Equal(t, "https://cdn.test/clip.mp4", res.Media[0].URL)
	assert.Equal(t, "https://cdn.test/clip.jpg", res.Thumbnail)
	assert.Equal(t, "clip", res.Caption)
	assert.Equal(t, "bob", res.Author)
	assert.Equal(t, "ABC123", res.Shortcode)

	assert.Equal(t, []string{"GET /p/ABC123/"}, up.calls())
}

func TestPageStrategyCarouselKeepsChildren(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head>
<script type="application/ld+json">{"@type":"SocialMediaPosting","articleBody":"two","author":{"name":"bob"},"image":["https://cdn.test/1.jpg","https://cdn.test/2.jpg"]}</script>
</head><body>
<script>window._sharedData = {"entry_data":{"PostPage":[{"graphql":{"shortcode_media":{"shortcode":"ABC123","display_url":"https://cdn.test/1.jpg","owner":{"username":"bob"},"edge_media_to_caption":{"edges":[{"node":{"text":"two"}}]},"edge_sidecar_to_children":{"edges":[{"node":{"display_url":"https://cdn.test/1.jpg"}},{"node":{"display_url":"https://cdn.test/2.jpg","video_url":"https://cdn.test/2.mp4"}}]}}}}]}};</script>
</body></html>`)
	})

	res, err := up.extractor(t, "page").Extract(context.Background(), "https://instagram.com/p/ABC123/")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeCarousel, res.Type)
	assert.Equal(t, []MediaItem{
		{Kind: MediaKindImage, URL: "https://cdn.test/1.jpg"},
		{Kind: MediaKindVideo, URL: "https://cdn.test/2.mp4", Thumbnail: "https://cdn.test/2.jpg"},
	}, res.Media)
	assert.Equal(t, "two", res.Caption)
	assert.Equal(t, "bob", res.Author)
}

func TestPageStrategyCarouselWithoutSharedData(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head>
<script type="application/ld+json">{"@type":"SocialMediaPosting","image":["https://cdn.test/1.jpg","https://cdn.test/2.jpg"]}</script>
</head><body><script>var d = {"video_url":"https:\/\/cdn.test\/2.mp4"};</script></body></html>`)
	})

	res, err := up.extractor(t, "page").Extract(context.Background(), "https://instagram.com/p/ABC123/")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeCarousel, res.Type)
	require.Len(t, res.Media, 2)
	assert.Equal(t, MediaKindImage, res.Media[1].Kind)
}

func TestScenarioOEmbedFallback(t *testing.T) {
	const input = "https://www.instagram.com/reel/XYZ"
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oembed/" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		assert.Equal(t, input, r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title":"T","thumbnail_url":"http://x/img.jpg","author_name":"bob"}`)
	})

	res, err := up.extractor(t).Extract(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, &Result{
		Type:      ContentTypePost,
		Caption:   "T",
		Author:    "bob",
		Thumbnail: "http://x/img.jpg",
		Shortcode: "XYZ",
		Media:     []MediaItem{{Kind: MediaKindImage, URL: "http://x/img.jpg"}},
	}, res)

	calls := up.calls()
	require.Len(t, calls, 5)
	assert.Equal(t, "GET /reel/XYZ/", calls[0])
	assert.Equal(t, "GET /reel/XYZ/embed/captioned/", calls[1])
	assert.Equal(t, "POST /graphql/query", calls[2])
	assert.Equal(t, "GET /reel/XYZ/?__a=1&__d=dis", calls[3])
	assert.True(t, strings.HasPrefix(calls[4], "GET /oembed/?url="))
}

func TestScenarioNotAURL(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := up.extractor(t).Extract(context.Background(), "not-a-url")
	assert.ErrorIs(t, err, ErrNotRecognized)
	assert.Empty(t, up.calls())
}

func TestScenarioAllStrategiesFail(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		// a login wall: 200 but no payload
		fmt.Fprint(w, `<html><body>Log in to continue</body></html>`)
	})

	res, err := up.extractor(t).Extract(context.Background(), "https://www.instagram.com/p/ABC123/")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Len(t, up.calls(), len(DefaultOrder))
}

func TestEmbedStrategy(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p/E1/embed/captioned/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body>
<script>window.__additionalDataLoaded('extra', {"shortcode_media":{"shortcode":"E1","video_url":"https://cdn.test/e.mp4","display_url":"https://cdn.test/e.jpg","owner":{"username":"eve"}}});</script>
</body></html>`)
	})

	res, err := up.extractor(t, "embed").Extract(context.Background(), "https://www.instagram.com/p/E1/")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeVideo, res.Type)
	assert.Equal(t, "eve", res.Author)
	assert.Equal(t, "https://cdn.test/e.mp4", res.Media[0].URL)
}

func TestEmbedStrategyInlineOnly(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="Embed"><script>x = {"display_url":"https:\/\/cdn.test\/only.jpg"}</script></div></body></html>`)
	})

	res, err := up.extractor(t, "embed").Extract(context.Background(), "https://www.instagram.com/tv/T1/")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeImage, res.Type)
	assert.Equal(t, "https://cdn.test/only.jpg", res.Media[0].URL)
	assert.Equal(t, "T1", res.Shortcode)
}

func TestGraphQLStrategy(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"xdt envelope", "xdt_shortcode_media"},
		{"legacy envelope", "shortcode_media"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/graphql/query", r.URL.Path)
				assert.NoError(t, r.ParseForm())

				assert.Equal(t, DefaultGraphQLDocID, r.PostForm.Get("doc_id"))
				assert.Contains(t, r.PostForm.Get("variables"), `"shortcode":"G1"`)
				assert.Equal(t, DefaultAppID, r.Header.Get("X-IG-App-ID"))
				assert.Equal(t, r.PostForm.Get("lsd"), r.Header.Get("X-FB-LSD"))
				assert.True(t, strings.HasSuffix(r.Header.Get("Referer"), "/p/G1/"))

				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{"data":{%q:{"shortcode":"G1","display_url":"https://cdn.test/g.jpg","edge_media_to_caption":{"edges":[{"node":{"text":"gql"}}]}}},"status":"ok"}`, tt.key)
			})

			res, err := up.extractor(t, "graphql").Extract(context.Background(), "https://www.instagram.com/p/G1/")
			require.NoError(t, err)
			assert.Equal(t, ContentTypeImage, res.Type)
			assert.Equal(t, "gql", res.Caption)
			assert.Equal(t, "https://cdn.test/g.jpg", res.Media[0].URL)
		})
	}

	t.Run("retired doc id", func(t *testing.T) {
		up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":{"xdt_shortcode_media":null},"status":"ok"}`)
		})

		_, err := up.extractor(t, "graphql").Extract(context.Background(), "https://www.instagram.com/p/G1/")
		assert.ErrorIs(t, err, ErrExhausted)
	})
}

func TestAPIStrategy(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("__a"))
		assert.Equal(t, DefaultAppID, r.Header.Get("X-IG-App-ID"))
		fmt.Fprint(w, `{"items":[{"code":"A1","user":{"username":"api_user"},"image_versions2":{"candidates":[{"url":"https://cdn.test/api.jpg"}]}}]}`)
	})

	res, err := up.extractor(t, "api").Extract(context.Background(), "https://www.instagram.com/p/A1/")
	require.NoError(t, err)
	assert.Equal(t, "api_user", res.Author)
	assert.Equal(t, "https://cdn.test/api.jpg", res.Media[0].URL)
}
