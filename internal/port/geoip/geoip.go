// Package geoip defines the port for external IP geolocation.
package geoip

import (
	"context"
	"net/netip"
)

// Resolver looks up the ISO 3166-1 alpha-2 country of a public IP address.
type Resolver interface {
	Lookup(ctx context.Context, ip netip.Addr) (string, error)
}
