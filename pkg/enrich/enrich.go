// Package enrich walks stored event ranges and fills in the location
// fields telemetry units cannot report themselves: geozone membership and
// reverse-geocoded postal addresses. A pass can run in report-only mode,
// leaving the store untouched, or persist every change it finds.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/SarkarTanzil/OpenGTS/pkg/geocode"
	"github.com/SarkarTanzil/OpenGTS/pkg/geozone"
	"github.com/SarkarTanzil/OpenGTS/pkg/store"
	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// Mode selects what a pass resolves.
type Mode int

const (
	// ModeGeozone matches events against the account's zone list.
	ModeGeozone Mode = iota
	// ModeGeocode resolves street addresses through a provider.
	ModeGeocode
)

// ErrNotEnabled is returned when the account's geocoder mode forbids the
// requested pass.
var ErrNotEnabled = errors.New("enrich: reverse geocoding disabled for account")

// ErrNoResolver is returned when an address pass has no provider wired.
var ErrNoResolver = errors.New("enrich: no address provider configured")

// EventStore is the slice of the storage layer a pass needs. *store.Store
// satisfies it; tests substitute fakes.
type EventStore interface {
	StreamEvents(ctx context.Context, q store.RangeQuery) (<-chan telemetry.Event, <-chan error)
	UpdateEnrichment(ctx context.Context, ev telemetry.Event) error
}

// ZoneMatcher answers point-in-zone queries. *geozone.Matcher satisfies it.
type ZoneMatcher interface {
	Match(ctx context.Context, p telemetry.GeoPoint) (geozone.Zone, bool)
}

// AddressResolver resolves a point to a postal address. *geocode.Resolver
// satisfies it.
type AddressResolver interface {
	ReverseGeocode(ctx context.Context, p telemetry.GeoPoint) (geocode.Address, error)
}

// Pipeline runs enrichment passes over one account's devices.
type Pipeline struct {
	Store    EventStore
	Zones    ZoneMatcher
	Resolver AddressResolver

	// Update persists changes; false reports what would change.
	Update bool

	// Logf receives per-event diagnostics; defaults to log.Printf.
	Logf func(format string, v ...any)
}

func (p *Pipeline) logf(format string, v ...any) {
	if p.Logf != nil {
		p.Logf(format, v...)
		return
	}
	log.Printf(format, v...)
}

// Result summarizes a pass.
type Result struct {
	Devices int
	Events  int
	Changed int
	Updated int

	// Failed lists devices whose pass aborted on a storage error.
	Failed []string
}

// Run enriches the given devices over a closed timestamp range. Only
// events with a usable fix are considered, oldest first. A storage failure
// aborts that device but the remaining devices are still attempted; the
// joined error reports every aborted device so callers can distinguish
// data-access failure from a clean pass.
func (p *Pipeline) Run(ctx context.Context, account *telemetry.Account, deviceIDs []string, from, to int64, mode Mode) (Result, error) {
	var res Result

	switch mode {
	case ModeGeozone:
		if account.GeocoderMode == telemetry.GeocoderNone {
			return res, fmt.Errorf("account %s: %w", account.AccountID, ErrNotEnabled)
		}
		if p.Zones == nil {
			return res, fmt.Errorf("account %s: %w", account.AccountID, ErrNoResolver)
		}
	case ModeGeocode:
		if !account.GeocoderMode.OKPartial() {
			return res, fmt.Errorf("account %s: %w", account.AccountID, ErrNotEnabled)
		}
		if p.Resolver == nil {
			return res, fmt.Errorf("account %s: %w", account.AccountID, ErrNoResolver)
		}
	default:
		return res, fmt.Errorf("enrich: unknown mode %d", mode)
	}

	var failures []error
	for _, deviceID := range deviceIDs {
		res.Devices++
		if err := p.runDevice(ctx, account, deviceID, from, to, mode, &res); err != nil {
			res.Failed = append(res.Failed, deviceID)
			failures = append(failures, fmt.Errorf("device %s: %w", deviceID, err))
		}
	}
	return res, errors.Join(failures...)
}

func (p *Pipeline) runDevice(ctx context.Context, account *telemetry.Account, deviceID string, from, to int64, mode Mode, res *Result) error {
	events, errCh := p.Store.StreamEvents(ctx, store.RangeQuery{
		AccountID: account.AccountID,
		DeviceID:  deviceID,
		From:      from,
		To:        to,
		ValidGPS:  true,
	})

	for ev := range events {
		res.Events++

		var changed bool
		switch mode {
		case ModeGeozone:
			changed = p.applyZone(ctx, &ev)
		case ModeGeocode:
			changed = p.applyAddress(ctx, &ev)
		}
		if !changed {
			continue
		}
		res.Changed++

		if !p.Update {
			p.logf("would update %s/%s@%d: zone=%q address=%q",
				ev.AccountID, ev.DeviceID, ev.Timestamp, ev.GeozoneID, ev.Address)
			continue
		}
		if err := p.Store.UpdateEnrichment(ctx, ev); err != nil {
			// Drain the stream so its goroutine can finish.
			for range events {
			}
			<-errCh
			return err
		}
		res.Updated++
	}
	return <-errCh
}

// applyZone matches the event's point against the zone list. A hit sets
// the zone id and index; the zone description doubles as the address when
// one is configured, matching what the map page shows for zone arrivals.
func (p *Pipeline) applyZone(ctx context.Context, ev *telemetry.Event) bool {
	z, ok := p.Zones.Match(ctx, ev.Point)
	if !ok {
		return false
	}
	changed := false
	if ev.GeozoneID != z.ZoneID {
		ev.GeozoneID = z.ZoneID
		changed = true
	}
	if ev.GeozoneIndex != z.Index {
		ev.GeozoneIndex = z.Index
		changed = true
	}
	if z.Description != "" && ev.Address != z.Description {
		ev.Address = z.Description
		changed = true
	}
	return changed
}

// applyAddress resolves the event's point. Slow or failed lookups leave
// the event untouched; the pass keeps moving.
func (p *Pipeline) applyAddress(ctx context.Context, ev *telemetry.Event) bool {
	addr, err := p.Resolver.ReverseGeocode(ctx, ev.Point)
	if errors.Is(err, geocode.ErrSlowOperation) {
		p.logf("slow geocode for %s/%s@%d, skipping", ev.AccountID, ev.DeviceID, ev.Timestamp)
		return false
	}
	if err != nil {
		p.logf("geocode failed for %s/%s@%d: %v", ev.AccountID, ev.DeviceID, ev.Timestamp, err)
		return false
	}

	changed := false
	if addr.Full != "" && ev.Address != addr.Full {
		ev.Address = addr.Full
		changed = true
	}
	if addr.City != "" && ev.City != addr.City {
		ev.City = addr.City
		changed = true
	}
	if addr.PostalCode != "" && ev.PostalCode != addr.PostalCode {
		ev.PostalCode = addr.PostalCode
		changed = true
	}
	return changed
}
