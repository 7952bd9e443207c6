package geocode

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/insuremap/exclusion-registry/internal/model"
)

// Resolve runs the fallback cascade for one place and classifies the
// outcome into an accuracy tier. HIGH results short-circuit immediately:
// every further step is a paid call that cannot improve on them.
//
// Transient network and quota errors degrade the failing step to "no
// result" and the cascade continues; they are never fatal. If the whole
// cascade produced nothing, the tier is FAILED when transport errors were
// seen and PENDING otherwise — both are retried on the next run.
func (c *Client) Resolve(ctx context.Context, p Place) Result {
	if c.apiKey == "" {
		return Result{Accuracy: model.AccuracyNoKey}
	}

	log := zap.L().With(zap.String("name", p.Name), zap.String("city", p.City))

	key := cacheKey(p)
	if c.cache != nil {
		r, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Debug("geocode cache read failed", zap.Error(err))
		case ok && r.Matched():
			log.Debug("geocode cache hit", zap.String("accuracy", string(r.Accuracy)))
			return r
		}
	}

	var transportErrs int
	cent := c.cityCentroid(ctx, p.City, p.State)

	// Step 1: place search by name + locality, biased to the city centroid.
	// Only a candidate tagged with a health type counts as confirmation.
	placeQuery := joinNonEmpty(" ", p.Name, p.City, p.State)
	hit, err := c.findPlace(ctx, placeQuery, locationBias(cent))
	switch {
	case err != nil:
		log.Warn("place search failed", zap.Error(err))
		transportErrs++
	case hit != nil && hit.Health:
		log.Info("resolved via place search", zap.String("accuracy", "HIGH"))
		return c.store(ctx, key, Result{
			Lat: hit.Lat, Lng: hit.Lng,
			Accuracy: model.AccuracyHigh,
			PlaceID:  hit.PlaceID,
		})
	}

	// Step 2: cross-reference the consumer autocomplete service. A
	// resolved place is accepted outright; a bare address string becomes
	// an improved query for the geocoding step.
	fullAddress := joinNonEmpty(", ", p.Address, p.City, p.State)
	pred, err := c.crossReference(ctx, joinNonEmpty(", ", p.Name, p.City))
	switch {
	case err != nil:
		log.Warn("autocomplete cross-reference failed", zap.Error(err))
		transportErrs++
	case pred != nil && pred.HasCoords():
		log.Info("resolved via autocomplete cross-reference", zap.String("accuracy", "HIGH"))
		return c.store(ctx, key, Result{
			Lat: pred.Lat, Lng: pred.Lng,
			Accuracy: model.AccuracyHigh,
		})
	case pred != nil && pred.Description != "":
		log.Debug("using autocomplete address for geocoding", zap.String("address", pred.Description))
		fullAddress = pred.Description
	}

	// Step 3: address geocoding, plain then name-prepended. First HIGH
	// wins; the first LOW is kept as a candidate (name-prefixed queries
	// that miss tend to snap to the city center, so the plain-address
	// result is preferred among LOWs).
	components := "country:IN"
	if model.ValidPincode(p.Pincode) {
		components += "|postal_code:" + strings.TrimSpace(p.Pincode)
	}

	var low *geocodeHit
	for _, query := range []string{fullAddress, joinNonEmpty(", ", p.Name, fullAddress)} {
		gh, gerr := c.geocodeAddress(ctx, query, components)
		if gerr != nil {
			log.Warn("address geocoding failed", zap.Error(gerr))
			transportErrs++
			continue
		}
		if gh == nil {
			continue
		}
		if gh.Accuracy == model.AccuracyHigh {
			log.Info("resolved via address geocoding", zap.String("accuracy", "HIGH"))
			return c.store(ctx, key, Result{Lat: gh.Lat, Lng: gh.Lng, Accuracy: model.AccuracyHigh})
		}
		if low == nil {
			low = gh
		}
	}
	if low != nil {
		log.Info("resolved via address geocoding", zap.String("accuracy", "LOW"))
		return c.store(ctx, key, Result{Lat: low.Lat, Lng: low.Lng, Accuracy: model.AccuracyLow})
	}

	// Step 4: city centroid fallback. Not cached under the place key so a
	// later run can still improve on it.
	if cent != nil {
		log.Info("falling back to city centroid", zap.String("accuracy", "APPROXIMATE"))
		return Result{Lat: cent.Lat, Lng: cent.Lng, Accuracy: model.AccuracyApproximate}
	}

	if transportErrs > 0 {
		log.Warn("all lookups errored, will retry next run")
		return Result{Accuracy: model.AccuracyFailed}
	}
	log.Info("no lookup produced coordinates, will retry next run")
	return Result{Accuracy: model.AccuracyPending}
}

// store writes a confirmed result through the cache before returning it.
func (c *Client) store(ctx context.Context, key string, r Result) Result {
	if c.cache != nil && r.Accuracy.Resolved() {
		if err := c.cache.Put(ctx, key, r); err != nil {
			zap.L().Debug("geocode cache write failed", zap.Error(err))
		}
	}
	return r
}

// joinNonEmpty joins the non-blank parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sep)
}
