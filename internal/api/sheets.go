package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"catan-standings/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const sheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// SheetsClient reads and writes A1 ranges through the Google Sheets v4 REST API.
type SheetsClient struct {
	client  *fasthttp.Client
	tokens  oauth2.TokenSource
	baseURL string
	logger  zerolog.Logger
}

type valueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

// NewSheetsClient authenticates with a service account key file.
func NewSheetsClient(keyFile string, logger zerolog.Logger) (*SheetsClient, error) {
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(key, sheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to authenticate using service account key: %w", err)
	}

	return NewSheetsClientWithTokens(conf.TokenSource(context.Background()), constants.SheetsAPIBaseURL, logger), nil
}

func NewSheetsClientWithTokens(tokens oauth2.TokenSource, baseURL string, logger zerolog.Logger) *SheetsClient {
	return &SheetsClient{
		client:  newFastHTTPClient(),
		tokens:  tokens,
		baseURL: baseURL,
		logger:  logger,
	}
}

// ReadRange returns the formatted cell values of an A1 range. Trailing
// empty rows and cells are omitted by the API.
func (c *SheetsClient) ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	u := fmt.Sprintf("%s/%s/values/%s", c.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(rng))

	var rows [][]string
	err := withTimeoutRetry(ctx, "sheets read "+rng, func(ctx context.Context) error {
		req := fasthttp.AcquireRequest()
		defer fasthttp.ReleaseRequest(req)
		req.SetRequestURI(u)
		req.Header.SetMethod(fasthttp.MethodGet)
		if err := c.authorize(req); err != nil {
			return err
		}

		body, err := doRequest(ctx, c.client, req)
		if err != nil {
			return err
		}

		var vr valueRange
		if err := json.Unmarshal(body, &vr); err != nil {
			return fmt.Errorf("failed to decode value range: %w", err)
		}
		rows = make([][]string, len(vr.Values))
		for i, row := range vr.Values {
			rows[i] = make([]string, len(row))
			for j, cell := range row {
				rows[i][j] = fmt.Sprint(cell)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("range", rng).Int("rows", len(rows)).Msg("sheet range read")
	return rows, nil
}

// WriteRange overwrites an A1 range with raw (unparsed) values.
func (c *SheetsClient) WriteRange(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", c.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(rng))

	payload, err := json.Marshal(valueRange{Range: rng, MajorDimension: "ROWS", Values: values})
	if err != nil {
		return fmt.Errorf("failed to encode value range: %w", err)
	}

	err = withTimeoutRetry(ctx, "sheets write "+rng, func(ctx context.Context) error {
		req := fasthttp.AcquireRequest()
		defer fasthttp.ReleaseRequest(req)
		req.SetRequestURI(u)
		req.Header.SetMethod(fasthttp.MethodPut)
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
		if err := c.authorize(req); err != nil {
			return err
		}

		_, err := doRequest(ctx, c.client, req)
		return err
	})
	if err != nil {
		return err
	}

	c.logger.Debug().Str("range", rng).Int("rows", len(values)).Msg("sheet range written")
	return nil
}

func (c *SheetsClient) authorize(req *fasthttp.Request) error {
	tok, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}
	req.Header.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	return nil
}
