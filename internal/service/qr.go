package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	mfotel "github.com/Strob0t/MenuForge/internal/adapter/otel"
	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/domain/qrcode"
	"github.com/Strob0t/MenuForge/internal/logger"
	"github.com/Strob0t/MenuForge/internal/port/database"
	"github.com/Strob0t/MenuForge/internal/port/qrencoder"
)

const pngDataURLPrefix = "data:image/png;base64,"

// QRService generates the single QR artifact of each menu.
type QRService struct {
	encoder qrencoder.Encoder
	opts    qrencoder.Options
	baseURL string
	log     *slog.Logger
	metrics *mfotel.Metrics
	now     func() time.Time
}

// NewQRService creates a QRService. baseURL is the public site origin.
func NewQRService(encoder qrencoder.Encoder, opts qrencoder.Options, baseURL string, log *slog.Logger, metrics *mfotel.Metrics) *QRService {
	return &QRService{
		encoder: encoder,
		opts:    opts,
		baseURL: baseURL,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// PublicURL returns the canonical URL encoded for a restaurant's menus.
func (s *QRService) PublicURL(restaurantSlug string) string {
	return qrcode.PublicURL(s.baseURL, restaurantSlug)
}

// Generate encodes publicURL and stores it as the menu's only QR row,
// replacing any prior row. On failure any prior row is deactivated so no
// active code points at a stale URL, and the error wraps
// domain.ErrDependencyFailure. A missing menu is returned as ErrNotFound.
func (s *QRService) Generate(ctx context.Context, store database.Store, menuID, publicURL string) (*qrcode.QRCode, error) {
	ctx, span := mfotel.StartQRSpan(ctx, menuID, publicURL)
	defer span.End()

	m, err := store.GetMenu(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("qr for menu %s: %w", menuID, err)
	}

	png, err := s.encoder.Encode(publicURL, s.opts)
	if err != nil {
		span.SetStatus(codes.Error, "encode")
		return nil, s.fail(ctx, store, menuID, fmt.Errorf("encode %q: %w", publicURL, err))
	}

	q := &qrcode.QRCode{
		ID:         newID(),
		TenantID:   m.TenantID,
		MenuID:     m.ID,
		URL:        publicURL,
		QRImageURL: pngDataURLPrefix + base64.StdEncoding.EncodeToString(png),
		IsActive:   true,
		CreatedAt:  s.now().UTC(),
	}
	err = store.InTx(ctx, func(tx database.Store) error {
		return tx.ReplaceQRCode(ctx, q)
	})
	if err != nil {
		span.SetStatus(codes.Error, "store")
		return nil, s.fail(ctx, store, menuID, fmt.Errorf("store: %w", err))
	}

	mfotel.Count(ctx, s.metrics.QRGenerated, "result", "ok")
	return q, nil
}

func (s *QRService) fail(ctx context.Context, store database.Store, menuID string, cause error) error {
	log := logger.FromContext(ctx, s.log)
	mfotel.Count(ctx, s.metrics.QRGenerated, "result", "failed")
	if err := store.DeactivateQRCode(ctx, menuID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Error("deactivate stale qr code", "menu_id", menuID, "error", err)
	}
	log.Warn("qr generation failed", "menu_id", menuID, "error", cause)
	return fmt.Errorf("qr for menu %s: %w: %w", menuID, domain.ErrDependencyFailure, cause)
}

// Regenerate re-derives the public URL from the current restaurant slug and
// generates a fresh code.
func (s *QRService) Regenerate(ctx context.Context, store database.Store, menuID string) (*qrcode.QRCode, error) {
	m, err := store.GetMenu(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("regenerate qr for menu %s: %w", menuID, err)
	}
	r, err := store.GetRestaurant(ctx, m.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("regenerate qr for menu %s: %w", menuID, err)
	}
	return s.Generate(ctx, store, menuID, s.PublicURL(r.Slug))
}

// DecodeImage returns the PNG bytes of an active code.
func DecodeImage(q *qrcode.QRCode) ([]byte, error) {
	if !q.IsActive {
		return nil, fmt.Errorf("qr code %s: %w", q.ID, domain.ErrNotFound)
	}
	data, ok := strings.CutPrefix(q.QRImageURL, pngDataURLPrefix)
	if !ok {
		return nil, fmt.Errorf("qr code %s: unexpected image encoding", q.ID)
	}
	png, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("qr code %s: %w", q.ID, err)
	}
	return png, nil
}
