// Command opengts-export reads stored GPS telemetry and emits it in the
// supported report formats, runs geozone and reverse-geocode enrichment
// passes, and optionally serves the same documents over HTTP.
//
// Exit codes: 0 on success, 1 on usage or precondition errors, 99 when
// the data store cannot be read or written.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SarkarTanzil/OpenGTS/pkg/enrich"
	"github.com/SarkarTanzil/OpenGTS/pkg/export"
	"github.com/SarkarTanzil/OpenGTS/pkg/feedserver"
	"github.com/SarkarTanzil/OpenGTS/pkg/geocode"
	"github.com/SarkarTanzil/OpenGTS/pkg/geozone"
	"github.com/SarkarTanzil/OpenGTS/pkg/logger"
	"github.com/SarkarTanzil/OpenGTS/pkg/store"
	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// CompileVersion is replaced via -ldflags at release time.
var CompileVersion = "dev"

var accountID = flag.String("account", "", "Account ID to export or enrich")
var deviceID = flag.String("device", "", `Device ID; "*" or "ALL" selects every device of the account`)
var eventsRange = flag.String("events", "", "Event selection: <count> for the latest events, or <from>,<to>[,<limit>]")
var formatToken = flag.String("format", "csv", "Output format: csv, xml, xmlold, txt, json, bml")
var output = flag.String("output", "stdout", `Output target: file path, "stdout" or "stderr"`)
var allTags = flag.Bool("all-tags", false, "Include every known field instead of the compact report set")
var tzName = flag.String("tz", "", "Override the account timezone for date/time rendering")
var geozoneRange = flag.String("geozone", "", "Run a geozone pass over <from>,<to>")
var geocodeRange = flag.String("geocode", "", "Run a reverse-geocode pass over <from>,<to>")
var geocodeURL = flag.String("geocode-url", "", "Reverse-geocode provider base URL (Nominatim compatible)")
var update = flag.Bool("update", false, "Persist enrichment changes instead of reporting them")

var dbType = flag.String("db-type", "sqlite", "Type of the database driver: genji, sqlite, duckdb, or pgx (postgresql)")
var dbPath = flag.String("db-path", "", "Path to the database file (applicable for genji, sqlite, duckdb drivers)")
var dbHost = flag.String("db-host", "127.0.0.1", "Database host (applicable for pgx driver)")
var dbPort = flag.Int("db-port", 5432, "Database port (applicable for pgx driver)")
var dbUser = flag.String("db-user", "postgres", "Database user (applicable for pgx driver)")
var dbPass = flag.String("db-pass", "", "Database password (applicable for pgx driver)")
var dbName = flag.String("db-name", "OpenGTS", "Database name (applicable for pgx driver)")
var pgSSLMode = flag.String("pg-ssl-mode", "prefer", "PostgreSQL SSL mode: disable, allow, prefer, require, verify-ca, or verify-full")

var servePort = flag.Int("serve-port", 0, "Serve exports over HTTP on this port instead of running a one-shot command")
var domain = flag.String("domain", "", "Use ports 80 and 443. Automatic HTTPS cert via Let's Encrypt.")
var showVersion = flag.Bool("version", false, "Show the application version")

// Exit codes shared with the surrounding tooling.
const (
	exitOK       = 0
	exitUsage    = 1
	exitDataFail = 99
)

// defaultCSVLimit bounds count-style selections when no limit is given.
const defaultCSVLimit = 30

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if *showVersion {
		fmt.Println(CompileVersion)
		return exitOK
	}

	st, err := store.Open(store.Config{
		Driver:    *dbType,
		Path:      *dbPath,
		Host:      *dbHost,
		Port:      *dbPort,
		User:      *dbUser,
		Pass:      *dbPass,
		Name:      *dbName,
		PGSSLMode: *pgSSLMode,
	})
	if err != nil {
		log.Printf("open store: %v", err)
		return exitDataFail
	}
	defer st.Close()
	if err := st.InitSchema(); err != nil {
		log.Printf("init schema: %v", err)
		return exitDataFail
	}

	if *domain != "" || *servePort > 0 {
		feedserver.Version = CompileVersion
		srv := &feedserver.Server{Store: st}
		if *domain != "" {
			err = srv.ServeWithDomain(*domain)
		} else {
			err = srv.Serve(*servePort)
		}
		log.Printf("server stopped: %v", err)
		return exitUsage
	}

	if *accountID == "" {
		log.Print("missing -account")
		return exitUsage
	}

	ctx := context.Background()
	account, err := st.Account(ctx, *accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("unknown account: %s", *accountID)
			return exitUsage
		}
		log.Printf("load account: %v", err)
		return exitDataFail
	}

	deviceIDs, code := resolveDevices(ctx, st, account)
	if code != exitOK {
		return code
	}

	switch {
	case *geozoneRange != "":
		return runEnrichment(ctx, st, account, deviceIDs, *geozoneRange, enrich.ModeGeozone)
	case *geocodeRange != "":
		return runEnrichment(ctx, st, account, deviceIDs, *geocodeRange, enrich.ModeGeocode)
	default:
		return runExport(ctx, st, account, deviceIDs)
	}
}

// resolveDevices expands the -device flag. A wildcard selects the
// account's whole fleet; an explicit id is verified to exist.
func resolveDevices(ctx context.Context, st *store.Store, account *telemetry.Account) ([]string, int) {
	switch strings.ToUpper(strings.TrimSpace(*deviceID)) {
	case "", "*", "ALL":
		ids, err := st.DeviceIDs(ctx, account.AccountID)
		if err != nil {
			log.Printf("list devices: %v", err)
			return nil, exitDataFail
		}
		if len(ids) == 0 {
			log.Printf("account %s has no devices", account.AccountID)
			return nil, exitUsage
		}
		return ids, exitOK
	default:
		if _, err := st.Device(ctx, account.AccountID, *deviceID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Printf("unknown device: %s", *deviceID)
				return nil, exitUsage
			}
			log.Printf("load device: %v", err)
			return nil, exitDataFail
		}
		return []string{*deviceID}, exitOK
	}
}

// parseDate accepts an epoch timestamp or YYYY/MM/DD in the display
// timezone. Dates used as range ends resolve to the end of that day.
func parseDate(value string, loc *time.Location, endOfDay bool) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if epoch, err := strconv.ParseInt(value, 10, 64); err == nil {
		return epoch, nil
	}
	t, err := time.ParseInLocation("2006/01/02", value, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q (want epoch or YYYY/MM/DD)", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t.Unix(), nil
}

// parseRange splits a "<from>,<to>[,<limit>]" flag value.
func parseRange(value string, loc *time.Location) (from, to int64, limit int, err error) {
	parts := strings.Split(value, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("invalid range %q (want <from>,<to>[,<limit>])", value)
	}
	if from, err = parseDate(parts[0], loc, false); err != nil {
		return 0, 0, 0, err
	}
	if to, err = parseDate(parts[1], loc, true); err != nil {
		return 0, 0, 0, err
	}
	if len(parts) == 3 {
		if limit, err = strconv.Atoi(strings.TrimSpace(parts[2])); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid limit %q", parts[2])
		}
	}
	return from, to, limit, nil
}

func displayLocation(account *telemetry.Account) (*time.Location, error) {
	if *tzName == "" {
		return account.Location(), nil
	}
	loc, err := time.LoadLocation(*tzName)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", *tzName)
	}
	return loc, nil
}

func runExport(ctx context.Context, st *store.Store, account *telemetry.Account, deviceIDs []string) int {
	loc, err := displayLocation(account)
	if err != nil {
		log.Print(err)
		return exitUsage
	}

	q := store.RangeQuery{AccountID: account.AccountID, Limit: defaultCSVLimit, Descending: true}
	if sel := strings.TrimSpace(*eventsRange); sel != "" {
		if count, err := strconv.Atoi(sel); err == nil && !strings.Contains(sel, ",") {
			q.Limit = count
		} else {
			from, to, limit, err := parseRange(sel, loc)
			if err != nil {
				log.Print(err)
				return exitUsage
			}
			q.From, q.To, q.Limit, q.Descending = from, to, limit, false
		}
	}

	var devices []telemetry.Device
	for _, id := range deviceIDs {
		dev, err := st.Device(ctx, account.AccountID, id)
		if err != nil {
			log.Printf("load device %s: %v", id, err)
			return exitDataFail
		}
		dq := q
		dq.DeviceID = id
		events, err := st.Events(ctx, dq)
		if err != nil {
			log.Printf("load events for %s: %v", id, err)
			return exitDataFail
		}
		dev.Events = events
		devices = append(devices, *dev)
	}

	out, closeOut, err := openOutput(*output)
	if err != nil {
		log.Print(err)
		return exitUsage
	}
	defer closeOut()

	profile := export.ProfileMinimal
	if *allTags {
		profile = export.ProfileAllTags
	}
	x := &export.Exporter{
		Format:  export.ParseFormat(*formatToken, export.FormatCSV),
		Profile: profile,
	}
	if *tzName != "" {
		x.TimeZone = loc
	}
	if err := x.Write(out, account, devices); err != nil {
		log.Printf("export failed: %v", err)
		return exitUsage
	}
	return exitOK
}

func openOutput(target string) (io.Writer, func(), error) {
	switch target {
	case "", "stdout":
		return os.Stdout, func() {}, nil
	case "stderr":
		return os.Stderr, func() {}, nil
	default:
		f, err := os.Create(target)
		if err != nil {
			return nil, nil, fmt.Errorf("open output %q: %w", target, err)
		}
		return f, func() { f.Close() }, nil
	}
}

func runEnrichment(ctx context.Context, st *store.Store, account *telemetry.Account, deviceIDs []string, rangeFlag string, mode enrich.Mode) int {
	loc, err := displayLocation(account)
	if err != nil {
		log.Print(err)
		return exitUsage
	}
	from, to, _, err := parseRange(rangeFlag, loc)
	if err != nil {
		log.Print(err)
		return exitUsage
	}

	p := &enrich.Pipeline{Store: st, Update: *update}
	switch mode {
	case enrich.ModeGeozone:
		zones, err := st.Geozones(ctx, account.AccountID)
		if err != nil {
			log.Printf("load geozones: %v", err)
			return exitDataFail
		}
		p.Zones = geozone.NewMatcher(zones)
	case enrich.ModeGeocode:
		if *geocodeURL != "" {
			p.Resolver = &geocode.Resolver{BaseURL: *geocodeURL}
		}
	}

	// One pass per device keeps the buffered log attributable: detail
	// lines stay hidden unless that device's pass fails.
	var total enrich.Result
	dataFailed := false
	for _, id := range deviceIDs {
		logger.Begin(id)
		p.Logf = func(format string, v ...any) {
			logger.Append(id, fmt.Sprintf(format, v...))
		}

		res, err := p.Run(ctx, account, []string{id}, from, to, mode)
		if err != nil {
			if errors.Is(err, enrich.ErrNotEnabled) || errors.Is(err, enrich.ErrNoResolver) {
				log.Printf("enrichment rejected: %v", err)
				return exitUsage
			}
			logger.FlushError(id, err)
			dataFailed = true
			continue
		}
		logger.Success(id, fmt.Sprintf("events=%d changed=%d updated=%d", res.Events, res.Changed, res.Updated))
		total.Devices += res.Devices
		total.Events += res.Events
		total.Changed += res.Changed
		total.Updated += res.Updated
	}

	if dataFailed {
		return exitDataFail
	}
	log.Printf("enrichment done: devices=%d events=%d changed=%d updated=%d",
		total.Devices, total.Events, total.Changed, total.Updated)
	return exitOK
}
