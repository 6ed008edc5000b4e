package http

import (
	"context"
	"net/http"
	"net/netip"
	"sort"
	"strconv"
	"time"

	"github.com/Strob0t/MenuForge/internal/domain/menu"
	"github.com/Strob0t/MenuForge/internal/middleware"
)

// MenuReader serves visible catalog content.
type MenuReader interface {
	Menu(ctx context.Context, restaurantSlug, menuSlug string) (*menu.PublicMenu, error)
	QRImage(ctx context.Context, restaurantSlug, menuSlug string) ([]byte, error)
}

// CountryDetector resolves a client's country and never fails.
type CountryDetector interface {
	Detect(ctx context.Context, ip netip.Addr, headers http.Header) string
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Handlers holds the collaborators of the HTTP surface.
type Handlers struct {
	Menus   MenuReader
	Country CountryDetector
	Checks  map[string]HealthCheck
	// CacheMaxAge is the max-age sent with public documents.
	CacheMaxAge time.Duration
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports "ok" when every check passes, "degraded" with 503 otherwise.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	res := healthResponse{Status: "ok"}
	if len(h.Checks) > 0 {
		res.Checks = make(map[string]string, len(h.Checks))
		names := make([]string, 0, len(h.Checks))
		for name := range h.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := h.Checks[name](ctx); err != nil {
				res.Status = "degraded"
				res.Checks[name] = err.Error()
				continue
			}
			res.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if res.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// GetRestaurantMenu handles GET /r/{restaurantSlug}, the URL encoded in QR codes.
func (h *Handlers) GetRestaurantMenu(w http.ResponseWriter, r *http.Request) {
	h.serveMenu(w, r, urlParam(r, "restaurantSlug"), r.URL.Query().Get("menu"))
}

// GetMenu handles GET /r/{restaurantSlug}/{menuSlug}.
func (h *Handlers) GetMenu(w http.ResponseWriter, r *http.Request) {
	h.serveMenu(w, r, urlParam(r, "restaurantSlug"), urlParam(r, "menuSlug"))
}

func (h *Handlers) serveMenu(w http.ResponseWriter, r *http.Request, restaurantSlug, menuSlug string) {
	doc, err := h.Menus.Menu(r.Context(), restaurantSlug, menuSlug)
	if err != nil {
		writeDomainError(w, err, "menu not found")
		return
	}
	if h.CacheMaxAge > 0 {
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(h.CacheMaxAge.Seconds())))
	}
	writeJSON(w, http.StatusOK, doc)
}

// GetQRImage handles GET /r/{restaurantSlug}/qr.png?menu={menuSlug}.
func (h *Handlers) GetQRImage(w http.ResponseWriter, r *http.Request) {
	png, err := h.Menus.QRImage(r.Context(), urlParam(r, "restaurantSlug"), r.URL.Query().Get("menu"))
	if err != nil {
		writeDomainError(w, err, "qr code not found")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

type countryResponse struct {
	Country string `json:"country"`
}

// GetCountry handles GET /api/v1/country.
func (h *Handlers) GetCountry(w http.ResponseWriter, r *http.Request) {
	code := h.Country.Detect(r.Context(), middleware.ClientAddr(r), r.Header)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, countryResponse{Country: code})
}
