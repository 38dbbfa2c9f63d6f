package extractor

import (
	"context"
	"fmt"
)

// pageStrategy scrapes the canonical post page for its linked data, falling
// back to the legacy shared page state
type pageStrategy struct {
	c *Client
}

func (s *pageStrategy) Name() string {
	return "page"
}

func (s *pageStrategy) Attempt(ctx context.Context, id Identifier) (*Result, error) {
	body, err := s.c.get(ctx, id.PostURL(s.c.Endpoints.Web), s.c.browserHeaders())
	if err != nil {
		return nil, err
	}

	p, err := parsePage(body)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	sd := p.sharedData()

	if ld := p.linkedData(); ld != nil {
		n := LinkedDataNormalizer{Inline: p.inline(), Shortcode: id.Shortcode}
		res := n.Normalize(ld)
		// linked data lists carousel children as plain images; the shared
		// state knows which of them are videos
		if res != nil && res.Type == ContentTypeCarousel && sd != nil {
			if full := SharedDataNormalizer(id.Shortcode).Normalize(sd); full != nil {
				return full, nil
			}
		}
		if res != nil {
			return res, nil
		}
	}

	if sd != nil {
		if res := SharedDataNormalizer(id.Shortcode).Normalize(sd); res != nil {
			return res, nil
		}
	}

	return nil, errNoPayload
}

func init() {
	Register("page", func(c *Client) Strategy { return &pageStrategy{c: c} })
}
