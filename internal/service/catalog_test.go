package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/domain/audit"
	"github.com/Strob0t/MenuForge/internal/domain/menu"
	"github.com/Strob0t/MenuForge/internal/domain/restaurant"
	"github.com/Strob0t/MenuForge/internal/domain/slug"
	"github.com/Strob0t/MenuForge/internal/domain/tenant"
	"github.com/Strob0t/MenuForge/internal/domain/translation"
	"github.com/Strob0t/MenuForge/internal/domain/user"
	"github.com/Strob0t/MenuForge/internal/port/cache"
)

// newTenant provisions a bare tenant and returns its id and admin id.
func newTenant(t *testing.T, env *testEnv, name string) (string, string) {
	t.Helper()
	res, err := env.prov.CreateTenant(context.Background(), tenant.CreateRequest{Name: name},
		user.CreateRequest{Email: "admin@" + slug.Normalize(name) + ".test", Password: "long-enough"})
	if err != nil {
		t.Fatalf("CreateTenant %s: %v", name, err)
	}
	return res.TenantID, res.ActorID
}

type fixture struct {
	tenantID string
	actor    *string
	rest     *restaurant.Restaurant
	menu     *menu.Menu
	sections []*menu.Section
}

func newFixture(t *testing.T, env *testEnv, name string) *fixture {
	t.Helper()
	ctx := context.Background()
	tenantID, actorID := newTenant(t, env, name)
	f := &fixture{tenantID: tenantID, actor: ptr(actorID)}

	var err error
	f.rest, _, err = env.catalog.CreateRestaurant(ctx, f.actor, restaurant.CreateRequest{TenantID: tenantID, Name: name}, slug.FailOnConflict)
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	f.menu, _, err = env.catalog.CreateMenu(ctx, f.actor, menu.CreateRequest{
		TenantID: tenantID, RestaurantID: f.rest.ID, Name: "Dinner", Status: menu.StatusPublished,
	}, slug.FailOnConflict)
	if err != nil {
		t.Fatalf("CreateMenu: %v", err)
	}
	for i, n := range []string{"Starters", "Mains", "Desserts"} {
		sec, err := env.catalog.CreateSection(ctx, menu.CreateSectionRequest{
			TenantID: tenantID, MenuID: f.menu.ID, Name: n, SortOrder: i + 1,
		})
		if err != nil {
			t.Fatalf("CreateSection: %v", err)
		}
		f.sections = append(f.sections, sec)
	}
	return f
}

func (f *fixture) item(name string, section int) menu.CreateItemRequest {
	return menu.CreateItemRequest{
		TenantID:  f.tenantID,
		MenuID:    f.menu.ID,
		SectionID: f.sections[section].ID,
		Name:      name,
		Prices:    []menu.PriceInput{{Currency: "USD", Label: "Regular", AmountMinor: 1250}},
	}
}

func TestCreateRestaurant_SlugUniquePlatformWide(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, _ := newTenant(t, env, "Alpha")
	b, _ := newTenant(t, env, "Beta")

	r, _, err := env.catalog.CreateRestaurant(ctx, nil, restaurant.CreateRequest{TenantID: a, Name: "Café Olé!"}, slug.FailOnConflict)
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	if r.Slug != "cafe-ole" {
		t.Errorf("slug = %q, want cafe-ole", r.Slug)
	}

	_, _, err = env.catalog.CreateRestaurant(ctx, nil, restaurant.CreateRequest{TenantID: b, Name: "Cafe Ole"}, slug.FailOnConflict)
	if !errors.Is(err, domain.ErrSlugConflict) {
		t.Fatalf("expected ErrSlugConflict, got %v", err)
	}
	if len(env.store.data.restaurants) != 1 {
		t.Errorf("conflict must not create a row, have %d restaurants", len(env.store.data.restaurants))
	}

	_, _, err = env.catalog.CreateRestaurant(ctx, nil, restaurant.CreateRequest{TenantID: "missing", Name: "Ghost"}, slug.FailOnConflict)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown tenant: expected ErrNotFound, got %v", err)
	}
}

func TestCreateMenu_SlugScopedPerRestaurant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := newFixture(t, env, "Alpha")
	b := newFixture(t, env, "Beta")

	if a.menu.Slug != "dinner" || b.menu.Slug != "dinner" {
		t.Fatalf("menus in different restaurants may share a slug: %q %q", a.menu.Slug, b.menu.Slug)
	}

	_, _, err := env.catalog.CreateMenu(ctx, a.actor, menu.CreateRequest{
		TenantID: a.tenantID, RestaurantID: a.rest.ID, Name: "Dinner",
	}, slug.FailOnConflict)
	if !errors.Is(err, domain.ErrSlugConflict) {
		t.Fatalf("expected ErrSlugConflict, got %v", err)
	}

	_, _, err = env.catalog.CreateMenu(ctx, a.actor, menu.CreateRequest{
		TenantID: a.tenantID, RestaurantID: b.rest.ID, Name: "Brunch",
	}, slug.FailOnConflict)
	if !errors.Is(err, domain.ErrTenantMismatch) {
		t.Errorf("cross-tenant restaurant: expected ErrTenantMismatch, got %v", err)
	}

	q, err := env.store.GetQRCode(ctx, a.menu.ID)
	if err != nil || q.URL != testBaseURL+"/r/alpha" {
		t.Errorf("menu creation should generate a QR code, got %+v err=%v", q, err)
	}
}

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newFixture(t, env, "Alpha")
	other, _, err := env.catalog.CreateMenu(ctx, f.actor, menu.CreateRequest{
		TenantID: f.tenantID, RestaurantID: f.rest.ID, Name: "Lunch",
	}, slug.FailOnConflict)
	if err != nil {
		t.Fatal(err)
	}
	foreign := newFixture(t, env, "Beta")

	tests := []struct {
		name    string
		req     func() menu.CreateItemRequest
		wantErr error
	}{
		{name: "valid", req: func() menu.CreateItemRequest { return f.item("Soup", 0) }},
		{name: "section of another menu", wantErr: domain.ErrTenantMismatch, req: func() menu.CreateItemRequest {
			r := f.item("Soup", 0)
			r.MenuID = other.ID
			return r
		}},
		{name: "section of another tenant", wantErr: domain.ErrTenantMismatch, req: func() menu.CreateItemRequest {
			r := f.item("Soup", 0)
			r.SectionID = foreign.sections[0].ID
			return r
		}},
		{name: "no prices", wantErr: domain.ErrValidation, req: func() menu.CreateItemRequest {
			r := f.item("Soup", 0)
			r.Prices = nil
			return r
		}},
		{name: "duplicate price label", wantErr: domain.ErrValidation, req: func() menu.CreateItemRequest {
			r := f.item("Soup", 0)
			r.Prices = append(r.Prices, r.Prices[0])
			return r
		}},
		{name: "negative amount", wantErr: domain.ErrValidation, req: func() menu.CreateItemRequest {
			r := f.item("Soup", 0)
			r.Prices[0].AmountMinor = -1
			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(env.store.data.items)
			it, _, err := env.catalog.CreateItem(ctx, tt.req(), nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if len(env.store.data.items) != before {
					t.Error("failed create must not persist an item")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateItem: %v", err)
			}
			if !it.Active || it.SortOrder != 1 || len(it.Prices) != 1 {
				t.Errorf("unexpected item %+v", it)
			}
		})
	}
}

func TestCreateItem_IconTags(t *testing.T) {
	env := newTestEnv(t)
	env.seedDemo(t)
	f := newFixture(t, env, "Alpha")

	it, warn, err := env.catalog.CreateItem(context.Background(), f.item("Salad", 0), []string{"vegan", "made_up", "VEGAN"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if len(it.IconIDs) != 1 {
		t.Errorf("expected one icon tag, got %v", it.IconIDs)
	}
	if len(warn) != 1 || !errors.Is(warn[0], domain.ErrNotFound) {
		t.Errorf("expected one ErrNotFound warning, got %v", warn)
	}
}

func TestReorderSections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newFixture(t, env, "Alpha")
	other := newFixture(t, env, "Beta")
	s0, s1, s2 := f.sections[0].ID, f.sections[1].ID, f.sections[2].ID

	tests := []struct {
		name    string
		ids     []string
		wantErr error
	}{
		{name: "missing section", ids: []string{s2, s1}, wantErr: domain.ErrValidation},
		{name: "duplicate section", ids: []string{s2, s2, s1}, wantErr: domain.ErrValidation},
		{name: "foreign section", ids: []string{s2, s1, other.sections[0].ID}, wantErr: domain.ErrTenantMismatch},
		{name: "valid", ids: []string{s2, s0, s1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.catalog.ReorderSections(ctx, f.menu.ID, tt.ids)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReorderSections: %v", err)
			}
			sections, _ := env.store.ListSections(ctx, f.menu.ID)
			for i, s := range sections {
				if s.ID != tt.ids[i] || s.SortOrder != i+1 {
					t.Errorf("position %d: got %s/%d, want %s/%d", i, s.ID, s.SortOrder, tt.ids[i], i+1)
				}
			}
		})
	}

	if err := env.catalog.ReorderSections(ctx, "missing", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown menu: expected ErrNotFound, got %v", err)
	}
}

func TestChangeRestaurantSlug_RegeneratesQR(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.seedDemo(t)
	menuID := res.MenuIDs[0]

	if _, err := env.public.Menu(ctx, "la-parrilla-del-sur", ""); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	r, warn, err := env.catalog.ChangeRestaurantSlug(ctx, ptr(res.ActorID), res.RestaurantID, "Parrilla Sur")
	if err != nil {
		t.Fatalf("ChangeRestaurantSlug: %v", err)
	}
	if len(warn) != 0 {
		t.Errorf("unexpected warnings %v", warn)
	}
	if r.Slug != "parrilla-sur" {
		t.Errorf("slug = %q", r.Slug)
	}

	q, err := env.store.GetQRCode(ctx, menuID)
	if err != nil {
		t.Fatal(err)
	}
	if q.URL != testBaseURL+"/r/parrilla-sur" {
		t.Errorf("qr url = %q", q.URL)
	}
	n := 0
	for _, row := range env.store.data.qrcodes {
		if row.MenuID == menuID {
			n++
		}
	}
	if n != 1 {
		t.Errorf("expected one qr row per menu, got %d", n)
	}

	if _, ok := env.cache.data[cache.PublicMenuKey("la-parrilla-del-sur", "")]; ok {
		t.Error("old public document must be invalidated")
	}
	if _, err := env.public.Menu(ctx, "la-parrilla-del-sur", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("old slug should be gone, got %v", err)
	}
	if _, err := env.public.Menu(ctx, "parrilla-sur", "carta-principal"); err != nil {
		t.Errorf("new slug: %v", err)
	}

	found := false
	for _, l := range env.store.data.audit {
		if l.Action == audit.ActionRestaurantSlugChange {
			found = true
		}
	}
	if !found {
		t.Error("slug change must be audited")
	}

	// Same slug again is a no-op.
	before := env.encoder.calls
	if _, _, err := env.catalog.ChangeRestaurantSlug(ctx, nil, res.RestaurantID, "parrilla-sur"); err != nil {
		t.Fatalf("no-op change: %v", err)
	}
	if env.encoder.calls != before {
		t.Error("unchanged slug must not regenerate QR codes")
	}
}

func TestChangeMenuSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newFixture(t, env, "Alpha")
	if _, _, err := env.catalog.CreateMenu(ctx, f.actor, menu.CreateRequest{
		TenantID: f.tenantID, RestaurantID: f.rest.ID, Name: "Lunch",
	}, slug.FailOnConflict); err != nil {
		t.Fatal(err)
	}

	if _, _, err := env.catalog.ChangeMenuSlug(ctx, f.actor, f.menu.ID, "lunch"); !errors.Is(err, domain.ErrSlugConflict) {
		t.Fatalf("expected ErrSlugConflict, got %v", err)
	}
	m, _, err := env.catalog.ChangeMenuSlug(ctx, f.actor, f.menu.ID, "Evening Menu")
	if err != nil {
		t.Fatalf("ChangeMenuSlug: %v", err)
	}
	if m.Slug != "evening-menu" {
		t.Errorf("slug = %q", m.Slug)
	}
	if _, err := env.store.GetMenuBySlug(ctx, f.rest.ID, "evening-menu"); err != nil {
		t.Errorf("renamed menu not found: %v", err)
	}
}

func TestChangeMenuStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newFixture(t, env, "Alpha")

	m, _, err := env.catalog.ChangeMenuStatus(ctx, f.actor, f.menu.ID, menu.StatusArchived)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if m.IsActive || m.Status != menu.StatusArchived {
		t.Errorf("archived menu %+v", m)
	}
	q, _ := env.store.GetQRCode(ctx, f.menu.ID)
	if q.IsActive {
		t.Error("archiving must deactivate the QR code")
	}

	if _, _, err := env.catalog.ChangeMenuStatus(ctx, f.actor, f.menu.ID, menu.StatusPublished); err != nil {
		t.Fatalf("republish: %v", err)
	}
	q, _ = env.store.GetQRCode(ctx, f.menu.ID)
	if !q.IsActive {
		t.Error("leaving ARCHIVED must generate a fresh QR code")
	}

	if _, _, err := env.catalog.ChangeMenuStatus(ctx, f.actor, f.menu.ID, "LIVE"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("invalid status: expected ErrValidation, got %v", err)
	}
}

func TestRegenerateQR_FailureKeepsNoActiveCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newFixture(t, env, "Alpha")

	env.encoder.err = errors.New("encoder offline")
	q, warn, err := env.catalog.RegenerateQR(ctx, f.menu.ID)
	if err != nil {
		t.Fatalf("RegenerateQR must not fail the operation: %v", err)
	}
	if q != nil || len(warn) != 1 || !errors.Is(warn[0], domain.ErrDependencyFailure) {
		t.Errorf("expected a dependency warning, got q=%v warn=%v", q, warn)
	}
	stored, _ := env.store.GetQRCode(ctx, f.menu.ID)
	if stored.IsActive {
		t.Error("a failed regeneration must not leave a stale active code")
	}

	env.encoder.err = nil
	q, warn, err = env.catalog.RegenerateQR(ctx, f.menu.ID)
	if err != nil || len(warn) != 0 || !q.IsActive {
		t.Errorf("regenerate: q=%+v warn=%v err=%v", q, warn, err)
	}
}

func TestAddTranslation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := newFixture(t, env, "Alpha")
	b := newFixture(t, env, "Beta")

	tr, err := env.catalog.AddTranslation(ctx, translation.Translation{
		TenantID: a.tenantID, Locale: "es", EntityType: translation.EntityMenu, EntityID: a.menu.ID, Key: "name", Value: "Cena",
	})
	if err != nil {
		t.Fatalf("AddTranslation: %v", err)
	}
	if tr.ID == "" {
		t.Error("translation id not assigned")
	}

	_, err = env.catalog.AddTranslation(ctx, translation.Translation{
		TenantID: a.tenantID, Locale: "es", EntityType: translation.EntityMenu, EntityID: b.menu.ID, Key: "name", Value: "Cena",
	})
	if !errors.Is(err, domain.ErrTenantMismatch) {
		t.Errorf("cross-tenant entity: expected ErrTenantMismatch, got %v", err)
	}

	_, err = env.catalog.AddTranslation(ctx, translation.Translation{
		TenantID: a.tenantID, Locale: "spanish", EntityType: translation.EntityMenu, EntityID: a.menu.ID, Key: "name", Value: "Cena",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad locale: expected ErrValidation, got %v", err)
	}
}

func TestMutationAuditFailureStillCommits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID, _ := newTenant(t, env, "Alpha")
	env.store.appendAuditErr = errors.New("audit table locked")

	r, warn, err := env.catalog.CreateRestaurant(ctx, nil, restaurant.CreateRequest{TenantID: tenantID, Name: "Alpha"}, slug.FailOnConflict)
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	if len(warn) != 1 || !errors.Is(warn.Err(), domain.ErrDependencyFailure) {
		t.Errorf("expected one dependency warning, got %v", warn)
	}
	if _, err := env.store.GetRestaurant(ctx, r.ID); err != nil {
		t.Errorf("restaurant must commit: %v", err)
	}
}

func TestChangeTenantStatus_HidesCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newFixture(t, env, "Alpha")
	if _, _, err := env.catalog.CreateItem(ctx, f.item("Soup", 0), nil); err != nil {
		t.Fatal(err)
	}

	if _, err := env.public.Menu(ctx, "alpha", "dinner"); err != nil {
		t.Fatalf("visible before suspension: %v", err)
	}
	if _, err := env.catalog.ChangeTenantStatus(ctx, f.actor, f.tenantID, tenant.StatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, err := env.public.Menu(ctx, "alpha", "dinner"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("suspended tenant must be hidden, got %v", err)
	}

	if _, err := env.catalog.ChangeTenantStatus(ctx, f.actor, f.tenantID, "deleted"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("invalid status: expected ErrValidation, got %v", err)
	}
}

func TestPlatformAdminMutationsAreAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newFixture(t, env, "Alpha")

	super, err := env.prov.BootstrapSuperAdmin(ctx, "ops@example.com", "correct-horse", "")
	if err != nil {
		t.Fatal(err)
	}
	warnings, err := env.catalog.ChangeTenantStatus(ctx, &super.ID, f.tenantID, tenant.StatusSuspended)
	if err != nil {
		t.Fatalf("ChangeTenantStatus: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	logs, err := env.catalog.ListAudit(ctx, f.tenantID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Action != audit.ActionTenantStatusChange {
		t.Fatalf("unexpected audit rows: %+v", logs)
	}
	if logs[0].ActorUserID == nil || *logs[0].ActorUserID != super.ID {
		t.Errorf("actor = %v, want %s", logs[0].ActorUserID, super.ID)
	}
}

func TestDeactivateRestaurant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newFixture(t, env, "Alpha")
	if _, _, err := env.catalog.CreateItem(ctx, f.item("Soup", 0), nil); err != nil {
		t.Fatal(err)
	}

	if _, err := env.catalog.DeactivateRestaurant(ctx, f.actor, f.rest.ID); err != nil {
		t.Fatalf("DeactivateRestaurant: %v", err)
	}
	if _, err := env.public.Menu(ctx, "alpha", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("inactive restaurant must be hidden, got %v", err)
	}
	if _, err := env.store.GetRestaurant(ctx, f.rest.ID); err != nil {
		t.Errorf("row must be kept: %v", err)
	}
}

func TestListAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.seedDemo(t)

	logs, err := env.catalog.ListAudit(ctx, res.TenantID, 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("expected 2 rows, got %d", len(logs))
	}
	if _, err := env.catalog.ListAudit(ctx, "", 10); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing tenant: expected ErrValidation, got %v", err)
	}
}
