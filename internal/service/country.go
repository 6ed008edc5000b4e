package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	mfotel "github.com/Strob0t/MenuForge/internal/adapter/otel"
	"github.com/Strob0t/MenuForge/internal/config"
	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/logger"
	"github.com/Strob0t/MenuForge/internal/port/geoip"
	"github.com/Strob0t/MenuForge/internal/resilience"
)

// CountryUnknown is returned whenever no country can be determined.
const CountryUnknown = "unknown"

// Edge proxies use these codes for "no country".
var headerSentinels = map[string]bool{
	"XX":      true,
	"T1":      true,
	"UNKNOWN": true,
}

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// CountryDetector resolves a client's ISO 3166-1 alpha-2 country. It never
// fails: every error degrades to CountryUnknown.
type CountryDetector struct {
	resolver geoip.Resolver // nil disables external lookups
	breaker  *resilience.Breaker
	header   string
	timeout  time.Duration
	log      *slog.Logger
	metrics  *mfotel.Metrics
}

// NewCountryDetector creates a detector. resolver may be nil.
func NewCountryDetector(resolver geoip.Resolver, breaker *resilience.Breaker, cfg config.Geo, log *slog.Logger, metrics *mfotel.Metrics) *CountryDetector {
	return &CountryDetector{
		resolver: resolver,
		breaker:  breaker,
		header:   cfg.TrustedHeader,
		timeout:  cfg.Timeout,
		log:      log,
		metrics:  metrics,
	}
}

// Detect prefers the trusted edge header, then an external lookup for public
// addresses. Private and otherwise non-routable addresses never trigger a call.
func (d *CountryDetector) Detect(ctx context.Context, ip netip.Addr, headers http.Header) string {
	if code, ok := countryCode(headers.Get(d.header)); ok {
		mfotel.Count(ctx, d.metrics.GeoLookups, "source", "header")
		return code
	}

	if !routable(ip) || d.resolver == nil {
		mfotel.Count(ctx, d.metrics.GeoLookups, "source", "skipped")
		return CountryUnknown
	}

	code, err := d.lookup(ctx, ip.Unmap())
	if err != nil {
		logger.FromContext(ctx, d.log).Debug("country lookup failed", "error", err)
		mfotel.Count(ctx, d.metrics.GeoLookups, "source", "failed")
		return CountryUnknown
	}
	mfotel.Count(ctx, d.metrics.GeoLookups, "source", "lookup")
	return code
}

func (d *CountryDetector) lookup(ctx context.Context, ip netip.Addr) (string, error) {
	ctx, span := mfotel.StartGeoLookupSpan(ctx)
	defer span.End()

	var answer string
	call := func(ctx context.Context) error {
		var err error
		answer, err = d.resolver.Lookup(ctx, ip)
		return err
	}

	var err error
	if d.breaker != nil {
		err = d.breaker.Execute(ctx, d.timeout, call)
	} else {
		callCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err = call(callCtx)
		cancel()
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w: %w", ip, domain.ErrExternalLookup, err)
	}

	code, ok := countryCode(answer)
	if !ok {
		return "", fmt.Errorf("lookup %s: %w: unusable answer %q", ip, domain.ErrExternalLookup, answer)
	}
	return code, nil
}

// countryCode accepts exactly two ASCII letters that are not a sentinel.
func countryCode(v string) (string, bool) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if len(v) != 2 || headerSentinels[v] {
		return "", false
	}
	for i := 0; i < 2; i++ {
		if v[i] < 'A' || v[i] > 'Z' {
			return "", false
		}
	}
	return v, true
}

func routable(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}
	ip = ip.Unmap()
	switch {
	case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
		ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
		return false
	}
	return !cgnat.Contains(ip)
}
