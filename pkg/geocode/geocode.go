// Package geocode resolves GPS points to postal addresses through a
// Nominatim-compatible HTTP endpoint. Lookups carry a latency budget: a
// provider that answers too slowly yields ErrSlowOperation so batch
// enrichment can skip the event instead of stalling the whole pass.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// ErrSlowOperation marks a lookup abandoned for exceeding the latency
// budget. Callers treat it as "no address available", not as a failure.
var ErrSlowOperation = errors.New("geocode: provider exceeded latency budget")

// Address is the resolved postal location. Empty fields mean the provider
// had no value for them.
type Address struct {
	Full       string
	City       string
	PostalCode string
}

// Resolver queries one reverse-geocoding endpoint.
type Resolver struct {
	// BaseURL is the endpoint root, e.g. "https://nominatim.example.org".
	BaseURL string

	// Budget limits each lookup. Zero means DefaultBudget.
	Budget time.Duration

	// Client may be replaced for testing; nil uses a client with a
	// timeout slightly above the budget so the transport backstops it.
	Client *http.Client
}

// DefaultBudget keeps batch enrichment moving even against a congested
// provider.
const DefaultBudget = 2500 * time.Millisecond

func (r *Resolver) budget() time.Duration {
	if r.Budget > 0 {
		return r.Budget
	}
	return DefaultBudget
}

func (r *Resolver) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: r.budget() + 500*time.Millisecond}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		Postcode string `json:"postcode"`
	} `json:"address"`
}

// ReverseGeocode resolves one point. Deadline overruns map to
// ErrSlowOperation; other transport or decode failures are returned as-is.
func (r *Resolver) ReverseGeocode(ctx context.Context, p telemetry.GeoPoint) (Address, error) {
	if !p.Valid() {
		return Address{}, errors.New("geocode: invalid point")
	}

	ctx, cancel := context.WithTimeout(ctx, r.budget())
	defer cancel()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%.5f", p.Lat))
	q.Set("lon", fmt.Sprintf("%.5f", p.Lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Address{}, fmt.Errorf("geocode: build request: %w", err)
	}

	resp, err := r.client().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return Address{}, ErrSlowOperation
		}
		return Address{}, fmt.Errorf("geocode: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, fmt.Errorf("geocode: provider returned %s", resp.Status)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Address{}, ErrSlowOperation
		}
		return Address{}, fmt.Errorf("geocode: decode response: %w", err)
	}

	city := body.Address.City
	if city == "" {
		city = body.Address.Town
	}
	if city == "" {
		city = body.Address.Village
	}
	return Address{
		Full:       body.DisplayName,
		City:       city,
		PostalCode: body.Address.Postcode,
	}, nil
}
