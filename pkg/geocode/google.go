package geocode

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/insuremap/exclusion-registry/internal/model"
)

const (
	googleGeocodeURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	googleFindPlaceURL = "https://maps.googleapis.com/maps/api/place/findplacefromtext/json"
)

// healthTypes are the Places API type tags that confirm a candidate is a
// medical facility rather than a same-named shop or street.
var healthTypes = map[string]struct{}{
	"hospital": {},
	"doctor":   {},
	"health":   {},
	"clinic":   {},
	"pharmacy": {},
}

type googleGeocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
	} `json:"results"`
}

// geocodeHit is one address-geocoding match.
type geocodeHit struct {
	Lat      float64
	Lng      float64
	Accuracy model.Accuracy
}

// geocodeAddress geocodes one address string, constrained by components
// (country, postal code). Returns nil when the API matched nothing.
func (c *Client) geocodeAddress(ctx context.Context, address, components string) (*geocodeHit, error) {
	params := url.Values{
		"address": {address},
		"key":     {c.apiKey},
	}
	if components != "" {
		params.Set("components", components)
	}

	var resp googleGeocodeResponse
	if err := c.getJSON(ctx, googleGeocodeURL, params, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, nil
	}

	res := resp.Results[0]
	return &geocodeHit{
		Lat:      res.Geometry.Location.Lat,
		Lng:      res.Geometry.Location.Lng,
		Accuracy: locationTypeToAccuracy(res.Geometry.LocationType),
	}, nil
}

// locationTypeToAccuracy maps Google's location_type to our tier taxonomy.
// Only rooftop and interpolated matches count as HIGH; everything else is
// street/area precision at best.
func locationTypeToAccuracy(locType string) model.Accuracy {
	switch strings.ToUpper(locType) {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		return model.AccuracyHigh
	default:
		return model.AccuracyLow
	}
}

type googleFindPlaceResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Candidates   []struct {
		PlaceID  string   `json:"place_id"`
		Types    []string `json:"types"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"candidates"`
}

// placeHit is one Find Place candidate.
type placeHit struct {
	Lat     float64
	Lng     float64
	PlaceID string
	Health  bool
}

// findPlace runs a text place search biased toward the city centroid.
// A 403 or REQUEST_DENIED disables the Places strategy for the rest of
// the run. Returns nil when nothing matched.
func (c *Client) findPlace(ctx context.Context, query, locationBias string) (*placeHit, error) {
	if c.placesDisabled.Load() {
		return nil, nil
	}

	params := url.Values{
		"key":       {c.apiKey},
		"input":     {query},
		"inputtype": {"textquery"},
		"fields":    {"place_id,geometry,name,types"},
		"language":  {"en-IN"},
	}
	if locationBias != "" {
		params.Set("locationbias", locationBias)
	}

	var resp googleFindPlaceResponse
	if err := c.getJSON(ctx, googleFindPlaceURL, params, nil, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == 403 {
			zap.L().Warn("places api returned 403, disabling place search for this run")
			c.placesDisabled.Store(true)
			return nil, nil
		}
		return nil, err
	}

	if resp.Status == "REQUEST_DENIED" {
		zap.L().Warn("places api request denied, disabling place search for this run",
			zap.String("error", resp.ErrorMessage))
		c.placesDisabled.Store(true)
		return nil, nil
	}
	if resp.Status != "OK" || len(resp.Candidates) == 0 {
		return nil, nil
	}

	cand := resp.Candidates[0]
	hit := &placeHit{
		Lat:     cand.Geometry.Location.Lat,
		Lng:     cand.Geometry.Location.Lng,
		PlaceID: cand.PlaceID,
	}
	for _, t := range cand.Types {
		if _, ok := healthTypes[t]; ok {
			hit.Health = true
			break
		}
	}
	return hit, nil
}
