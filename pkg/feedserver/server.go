// Package feedserver exposes the export engine over HTTP: event documents
// in every supported format, the map feed and its generated parser, and a
// QR code that hands the feed URL to a phone. TLS with automatic
// certificates is available when a domain is configured.
package feedserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/acme/autocert"

	"github.com/SarkarTanzil/OpenGTS/pkg/export"
	"github.com/SarkarTanzil/OpenGTS/pkg/mapfeed"
	"github.com/SarkarTanzil/OpenGTS/pkg/store"
	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// Version is stamped into the Server response header at build time.
var Version = "dev"

// queryLimit caps web requests so a missing range cannot dump an entire
// event history into one response.
const queryLimit = 1000

// Server serves event documents for the accounts in one store.
type Server struct {
	Store *store.Store

	// Logf receives request diagnostics; defaults to log.Printf.
	Logf func(format string, v ...any)
}

func (s *Server) logf(format string, v ...any) {
	if s.Logf != nil {
		s.Logf(format, v...)
		return
	}
	log.Printf(format, v...)
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	// ServeMux wildcards must span a whole segment, so "/events.{format}"
	// is not a valid pattern; match the segment and split off the
	// extension here instead.
	mux.HandleFunc("/{doc}", func(w http.ResponseWriter, r *http.Request) {
		format, ok := strings.CutPrefix(r.PathValue("doc"), "events.")
		if !ok {
			http.NotFound(w, r)
			return
		}
		r.SetPathValue("format", format)
		s.handleEvents(w, r)
	})
	mux.HandleFunc("/mapfeed", s.handleMapFeed)
	mux.HandleFunc("/mapfeed.js", s.handleMapFeedJS)
	mux.HandleFunc("/qr.png", s.handleQR)
	return withServerHeader(mux)
}

// withServerHeader stamps every response and answers HEAD / immediately so
// load balancers can probe liveness without touching the store.
func withServerHeader(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "opengts-export/"+Version)
		if r.Method == http.MethodHead && r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// workingSet loads the account and the requested devices with their events
// for one request.
func (s *Server) workingSet(ctx context.Context, r *http.Request) (*telemetry.Account, []telemetry.Device, error) {
	q := r.URL.Query()
	accountID := q.Get("a")
	if accountID == "" {
		return nil, nil, errors.New("missing account parameter a")
	}
	account, err := s.Store.Account(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}

	deviceIDs := q["d"]
	if len(deviceIDs) == 0 {
		deviceIDs, err = s.Store.DeviceIDs(ctx, accountID)
		if err != nil {
			return nil, nil, err
		}
	}

	from, _ := strconv.ParseInt(q.Get("rf"), 10, 64)
	to, _ := strconv.ParseInt(q.Get("rt"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("l"))
	if limit <= 0 || limit > queryLimit {
		limit = queryLimit
	}

	var devices []telemetry.Device
	for _, deviceID := range deviceIDs {
		dev, err := s.Store.Device(ctx, accountID, deviceID)
		if err != nil {
			return nil, nil, err
		}
		events, err := s.Store.Events(ctx, store.RangeQuery{
			AccountID:  accountID,
			DeviceID:   deviceID,
			From:       from,
			To:         to,
			Limit:      limit,
			Descending: to == 0 && from == 0, // no range means the newest slice
		})
		if err != nil {
			return nil, nil, err
		}
		dev.Events = events
		devices = append(devices, *dev)
	}
	return account, devices, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logf("%s %s: %v", r.Method, r.URL.Path, err)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "request failed", http.StatusInternalServerError)
}

var formatContentTypes = map[export.Format]string{
	export.FormatCSV:    "text/csv; charset=utf-8",
	export.FormatTXT:    "text/plain; charset=utf-8",
	export.FormatXML:    "application/xml; charset=utf-8",
	export.FormatXMLOld: "application/xml; charset=utf-8",
	export.FormatJSON:   "application/json; charset=utf-8",
	export.FormatJSONX:  "application/json; charset=utf-8",
	export.FormatBML:    "application/xml; charset=utf-8",
}

// handleEvents serves /events.<format>, e.g. /events.csv or /events.json.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	format := export.ParseFormat(r.PathValue("format"), export.FormatUnknown)
	ct, ok := formatContentTypes[format]
	if !ok {
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}

	account, devices, err := s.workingSet(r.Context(), r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	profile := export.ProfileMinimal
	if r.URL.Query().Get("at") == "1" {
		profile = export.ProfileAllTags
	}
	x := &export.Exporter{Format: format, Profile: profile, Logf: s.logf}
	if tz := r.URL.Query().Get("tz"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			x.TimeZone = loc
		}
	}

	w.Header().Set("Content-Type", ct)
	if err := x.Write(w, account, devices); err != nil {
		// Headers are gone; the document is partial. Log and move on.
		s.logf("export %s for %s: %v", format, account.AccountID, err)
	}
}

// handleMapFeed streams the positional record feed for the map page.
func (s *Server) handleMapFeed(w http.ResponseWriter, r *http.Request) {
	account, devices, err := s.workingSet(r.Context(), r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	f := &mapfeed.Formatter{Fleet: len(devices) > 1}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := f.WriteEvents(w, account, devices); err != nil {
		s.logf("map feed for %s: %v", account.AccountID, err)
	}
}

// handleMapFeedJS serves the generated record parser.
func (s *Server) handleMapFeedJS(w http.ResponseWriter, r *http.Request) {
	fleet := len(r.URL.Query()["d"]) != 1
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	if err := mapfeed.WriteParserJS(w, nil, fleet); err != nil {
		s.logf("map feed parser: %v", err)
	}
}

// handleQR renders a QR code for the given share URL so a feed address can
// jump from a dashboard to a phone camera.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("u")
	if target == "" {
		target = "http://" + r.Host + "/mapfeed?" + r.URL.RawQuery
	}
	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// Serve listens on the given port over plain HTTP.
func (s *Server) Serve(port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logf("HTTP server listening on %s", addr)
	return srv.ListenAndServe()
}

// ServeWithDomain runs the ACME challenge plus redirect listener on :80
// and HTTPS with automatic certificates on :443. A fallback certificate
// covers IP and unknown-SNI clients once the first issuance completes.
func (s *Server) ServeWithDomain(domain string) error {
	certMgr := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
		Cache:  autocert.DirCache("certs"),
		HostPolicy: func(_ context.Context, host string) error {
			if host == domain || host == "www."+domain {
				return nil
			}
			if net.ParseIP(host) != nil {
				return nil
			}
			return errors.New("acme/autocert: host not configured")
		},
	}

	go func() {
		mux80 := http.NewServeMux()
		mux80.Handle("/.well-known/acme-challenge/", certMgr.HTTPHandler(nil))
		mux80.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			target := "https://" + domain + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
		})
		s.logf("HTTP server (ACME+redirect) listening on :80")
		if err := (&http.Server{
			Addr:              ":80",
			Handler:           mux80,
			ReadHeaderTimeout: 10 * time.Second,
		}).ListenAndServe(); err != nil {
			s.logf("HTTP server error: %v", err)
		}
	}()

	tlsCfg := certMgr.TLSConfig()

	var defaultCert *tls.Certificate
	go func() {
		for defaultCert == nil {
			if c, err := certMgr.GetCertificate(&tls.ClientHelloInfo{ServerName: domain}); err == nil {
				defaultCert = c
			}
			time.Sleep(time.Minute)
		}
	}()
	inner := tlsCfg.GetCertificate
	tlsCfg.GetCertificate = func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
		c, err := inner(chi)
		if err == nil {
			return c, nil
		}
		if defaultCert != nil {
			return defaultCert, nil
		}
		return nil, err
	}

	srv := &http.Server{
		Addr:              ":443",
		Handler:           s.Handler(),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logf("HTTPS server listening on :443 for %s", domain)
	return srv.ListenAndServeTLS("", "")
}
