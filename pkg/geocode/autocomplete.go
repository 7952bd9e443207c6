package geocode

import (
	"context"
	"net/url"

	"github.com/google/uuid"
)

// autocompleteResponse is the prediction list returned by the consumer
// mapping service used for cross-validation.
type autocompleteResponse struct {
	Predictions []struct {
		Description string  `json:"description"`
		Lat         float64 `json:"lat,omitempty"`
		Lng         float64 `json:"lng,omitempty"`
	} `json:"predictions"`
}

// prediction is the best autocomplete candidate for a query.
type prediction struct {
	Description string
	Lat         float64
	Lng         float64
}

// HasCoords reports whether the service returned a resolved location
// rather than just an address string.
func (p prediction) HasCoords() bool { return p.Lat != 0 || p.Lng != 0 }

// crossReference queries the autocomplete service for "name, city".
// The service expects browser-like headers and a fresh session token per
// request. Returns nil on miss or when the step is not configured.
func (c *Client) crossReference(ctx context.Context, query string) (*prediction, error) {
	if c.autocompleteURL == "" {
		return nil, nil
	}

	params := url.Values{
		"inputText": {query},
		"token":     {uuid.NewString()},
	}
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36",
		"Accept":     "application/json, text/plain, */*",
	}
	// The service rejects requests without a same-site referer.
	if u, err := url.Parse(c.autocompleteURL); err == nil && u.Host != "" {
		origin := u.Scheme + "://" + u.Host
		headers["Origin"] = origin
		headers["Referer"] = origin + "/"
	}

	var resp autocompleteResponse
	if err := c.getJSON(ctx, c.autocompleteURL, params, headers, &resp); err != nil {
		return nil, err
	}
	if len(resp.Predictions) == 0 {
		return nil, nil
	}

	best := resp.Predictions[0]
	return &prediction{Description: best.Description, Lat: best.Lat, Lng: best.Lng}, nil
}
