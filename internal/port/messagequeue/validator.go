package messagequeue

import (
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var target any
	switch subject {
	case SubjectTenantCreated:
		target = &TenantCreatedPayload{}
	case SubjectRestaurantCreated:
		target = &RestaurantCreatedPayload{}
	case SubjectCatalogChanged:
		target = &CatalogChangedPayload{}
	case SubjectQRGenerated:
		target = &QRGeneratedPayload{}
	case SubjectAudit:
		target = &AuditPayload{}
	default:
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
