package api

import (
	"context"
	"fmt"
	"net/url"

	"catan-standings/internal/config"
	"catan-standings/internal/constants"
	"catan-standings/internal/domain"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	colonistBaseURL = "https://colonist.io"
	twoSheepBaseURL = "https://twosheep.io"
)

// ReplayClient fetches raw replay payloads from colonist.io and twosheep.io.
type ReplayClient struct {
	client         *fasthttp.Client
	limiter        *rate.Limiter
	twoSheepAPIKey string
	colonistURL    string
	twoSheepURL    string
	logger         zerolog.Logger
}

func NewReplayClient(cfg *config.Config, logger zerolog.Logger) *ReplayClient {
	return &ReplayClient{
		client:         newFastHTTPClient(),
		limiter:        rate.NewLimiter(rate.Limit(cfg.ReplayRateLimit), constants.ReplayRateBurst),
		twoSheepAPIKey: cfg.TwoSheepAPIKey,
		colonistURL:    colonistBaseURL,
		twoSheepURL:    twoSheepBaseURL,
		logger:         logger,
	}
}

// WithBaseURLs points the client at other hosts, used against test servers.
func (c *ReplayClient) WithBaseURLs(colonist, twoSheep string) *ReplayClient {
	c.colonistURL = colonist
	c.twoSheepURL = twoSheep
	return c
}

func (c *ReplayClient) FetchReplay(ctx context.Context, site domain.Site, slug string) ([]byte, error) {
	switch site {
	case domain.SiteColonist:
		return c.GetColonistReplay(ctx, slug)
	case domain.SiteTwoSheep:
		return c.GetTwoSheepReplay(ctx, slug)
	default:
		return nil, fmt.Errorf("unsupported replay site %q", site)
	}
}

// GetColonistReplay returns the "data" object of the replay response.
func (c *ReplayClient) GetColonistReplay(ctx context.Context, slug string) ([]byte, error) {
	u := fmt.Sprintf("%s/api/replay/data-from-slug?replayUrlSlug=%s", c.colonistURL, url.QueryEscape(slug))

	body, err := c.get(ctx, "colonist.io replay", u)
	if err != nil {
		return nil, err
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return nil, domain.Malformed("colonist.io response for %s has no data", slug)
	}
	return []byte(data.Raw), nil
}

func (c *ReplayClient) GetTwoSheepReplay(ctx context.Context, slug string) ([]byte, error) {
	u := fmt.Sprintf("%s/api/getReplay?id=%s&apiKey=%s", c.twoSheepURL, url.QueryEscape(slug), url.QueryEscape(c.twoSheepAPIKey))
	return c.get(ctx, "twosheep.io replay", u)
}

func (c *ReplayClient) get(ctx context.Context, what, u string) ([]byte, error) {
	var body []byte
	err := withTimeoutRetry(ctx, what, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req := fasthttp.AcquireRequest()
		defer fasthttp.ReleaseRequest(req)
		req.SetRequestURI(u)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.SetContentType("application/json")
		req.Header.SetUserAgent(constants.ReplayUserAgent)

		var err error
		body, err = doRequest(ctx, c.client, req)
		return err
	})
	if err != nil {
		c.logger.Error().Err(err).Str("source", what).Msg("replay fetch failed")
		return nil, err
	}

	c.logger.Debug().Str("source", what).Int("bytes", len(body)).Msg("replay fetched")
	return body, nil
}
