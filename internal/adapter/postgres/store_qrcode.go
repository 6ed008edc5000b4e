package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/MenuForge/internal/domain/qrcode"
)

// ReplaceQRCode deletes the menu's prior row before inserting q, so at most
// one row exists per menu. Callers run it inside a transaction.
func (s *Store) ReplaceQRCode(ctx context.Context, q *qrcode.QRCode) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM qr_codes WHERE menu_id = $1`, q.MenuID); err != nil {
		return writeErr(err, "remove prior qr code for menu %s", q.MenuID)
	}
	err := s.q.QueryRow(ctx, `
		INSERT INTO qr_codes (id, tenant_id, menu_id, url, qr_image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		q.ID, q.TenantID, q.MenuID, q.URL, q.QRImageURL, q.IsActive,
	).Scan(&q.CreatedAt)
	if err != nil {
		return writeErr(err, "insert qr code for menu %s", q.MenuID)
	}
	return nil
}

func (s *Store) GetQRCode(ctx context.Context, menuID string) (*qrcode.QRCode, error) {
	var q qrcode.QRCode
	err := s.q.QueryRow(ctx, `
		SELECT id, tenant_id, menu_id, url, qr_image_url, is_active, created_at
		FROM qr_codes WHERE menu_id = $1`, menuID,
	).Scan(&q.ID, &q.TenantID, &q.MenuID, &q.URL, &q.QRImageURL, &q.IsActive, &q.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get qr code for menu %s", menuID)
	}
	return &q, nil
}

// DeactivateQRCode is a no-op when the menu has no code.
func (s *Store) DeactivateQRCode(ctx context.Context, menuID string) error {
	if _, err := s.q.Exec(ctx, `UPDATE qr_codes SET is_active = FALSE WHERE menu_id = $1`, menuID); err != nil {
		return fmt.Errorf("deactivate qr code for menu %s: %w", menuID, err)
	}
	return nil
}
