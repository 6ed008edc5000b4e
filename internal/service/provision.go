package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	mfotel "github.com/Strob0t/MenuForge/internal/adapter/otel"
	"github.com/Strob0t/MenuForge/internal/config"
	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/domain/audit"
	"github.com/Strob0t/MenuForge/internal/domain/icon"
	"github.com/Strob0t/MenuForge/internal/domain/menu"
	"github.com/Strob0t/MenuForge/internal/domain/provision"
	"github.com/Strob0t/MenuForge/internal/domain/restaurant"
	"github.com/Strob0t/MenuForge/internal/domain/slug"
	"github.com/Strob0t/MenuForge/internal/domain/tenant"
	"github.com/Strob0t/MenuForge/internal/domain/translation"
	"github.com/Strob0t/MenuForge/internal/domain/user"
	"github.com/Strob0t/MenuForge/internal/logger"
	"github.com/Strob0t/MenuForge/internal/port/database"
	"github.com/Strob0t/MenuForge/internal/port/messagequeue"
)

// stepPolicy declares how a provisioning step's failure is handled.
type stepPolicy string

const (
	// stepFatal aborts the run and rolls back every row it wrote.
	stepFatal stepPolicy = "fatal"
	// stepTolerant runs in a savepoint. Its failure rolls back only the
	// savepoint and is reported as a warning.
	stepTolerant stepPolicy = "tolerant"
)

type step struct {
	name   string
	policy stepPolicy
	run    func(ctx context.Context, tx database.Store) error
}

// Provisioner builds complete tenant graphs in a single transaction.
type Provisioner struct {
	store       database.Store
	catalog     *CatalogService
	hasher      PasswordHasher
	defaults    config.TenantDefaults
	minPassword int
	log         *slog.Logger
	metrics     *mfotel.Metrics
	parallelism int
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(store database.Store, catalog *CatalogService, hasher PasswordHasher, defaults config.TenantDefaults, minPassword int, log *slog.Logger, metrics *mfotel.Metrics) *Provisioner {
	return &Provisioner{
		store:       store,
		catalog:     catalog,
		hasher:      hasher,
		defaults:    defaults,
		minPassword: minPassword,
		log:         log,
		metrics:     metrics,
		parallelism: 4,
	}
}

// run is the mutable state of one provisioning run. Steps read the ids that
// earlier steps produced.
type run struct {
	d      *provision.Description
	res    *provision.Result
	t      *txn
	tenant *tenant.Tenant
	rest   *restaurant.Restaurant
	menus  []*menu.Menu
	// per menu, per section
	sections [][]*menu.Section
	// per menu, items keyed by name for translation lookup
	items []map[string]*menu.Item
	icons icon.Catalog
}

// Provision creates the tenant graph described by d. Every write happens in
// one transaction: a fatal step failure rolls back the whole graph and
// returns an error naming the step. QR generation and audit recording are
// tolerant; their failures are returned in Result.Warnings while the graph
// commits.
func (p *Provisioner) Provision(ctx context.Context, d *provision.Description) (*provision.Result, error) {
	if err := d.Validate(); err != nil {
		return nil, invalid("description", err)
	}

	ctx = logger.WithRunID(ctx, newID())
	ctx, span := mfotel.StartProvisionSpan(ctx, d.Tenant.Name)
	defer span.End()
	log := logger.FromContext(ctx, p.log).With("tenant", d.Tenant.Name)

	start := time.Now()
	p.metrics.ProvisionRuns.Add(ctx, 1)
	defer func() {
		p.metrics.ProvisionDuration.Record(ctx, time.Since(start).Seconds())
	}()

	r := &run{d: d, res: &provision.Result{}, t: &txn{reason: "provision"}}
	steps := p.plan(r)

	err := p.store.InTx(ctx, func(tx database.Store) error {
		r.t.tx = tx
		for _, st := range steps {
			if err := p.exec(ctx, tx, r, st); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.metrics.ProvisionFailures.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		log.Error("provisioning rolled back", "error", err)
		return nil, fmt.Errorf("provision %q: %w", d.Tenant.Name, err)
	}

	r.res.Warnings = append(r.res.Warnings, r.t.warn...)
	p.afterCommit(ctx, r)
	log.Info("provisioning committed",
		"tenant_id", r.res.TenantID,
		"restaurant_id", r.res.RestaurantID,
		"menus", r.res.Counts.Menus,
		"items", r.res.Counts.Items,
		"warnings", len(r.res.Warnings),
	)
	return r.res, nil
}

func (p *Provisioner) exec(ctx context.Context, tx database.Store, r *run, st step) error {
	ctx, span := mfotel.StartStepSpan(ctx, st.name, string(st.policy))
	defer span.End()

	if st.policy == stepFatal {
		if err := st.run(ctx, tx); err != nil {
			span.SetStatus(codes.Error, "fatal")
			return fmt.Errorf("step %s: %w", st.name, err)
		}
		return nil
	}

	err := tx.InTx(ctx, func(sp database.Store) error { return st.run(ctx, sp) })
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrDependencyFailure) {
		err = fmt.Errorf("%w: %w", domain.ErrDependencyFailure, err)
	}
	span.SetStatus(codes.Error, "tolerated")
	p.metrics.StepWarnings.Add(ctx, 1, metric.WithAttributes(attribute.String("step", stepKind(st.name))))
	logger.FromContext(ctx, p.log).Warn("provisioning step failed, continuing", "step", st.name, "error", err)
	r.res.Warn(fmt.Errorf("step %s: %w", st.name, err))
	return nil
}

// stepKind strips the per-entity suffix so metric cardinality stays bounded.
func stepKind(name string) string {
	kind, _, _ := strings.Cut(name, ":")
	return kind
}

// plan lays out the steps in dependency order. Each closure only reads ids
// produced by steps before it.
func (p *Provisioner) plan(r *run) []step {
	d := r.d
	steps := []step{
		{name: "tenant", policy: stepFatal, run: func(ctx context.Context, tx database.Store) error {
			return p.stepTenant(ctx, tx, r)
		}},
		{name: "users", policy: stepFatal, run: func(ctx context.Context, tx database.Store) error {
			return p.stepUsers(ctx, tx, r)
		}},
	}
	if d.Restaurant == nil {
		return steps
	}

	steps = append(steps,
		step{name: "restaurant", policy: stepFatal, run: func(ctx context.Context, tx database.Store) error {
			return p.stepRestaurant(ctx, tx, r)
		}},
		step{name: "menus", policy: stepFatal, run: func(ctx context.Context, tx database.Store) error {
			return p.stepMenus(ctx, tx, r)
		}},
		step{name: "sections", policy: stepFatal, run: func(ctx context.Context, tx database.Store) error {
			return p.stepSections(ctx, tx, r)
		}},
		step{name: "icons", policy: stepFatal, run: func(ctx context.Context, tx database.Store) error {
			icons, err := tx.ListIcons(ctx)
			if err != nil {
				return fmt.Errorf("load icon catalog: %w", err)
			}
			r.icons = icon.NewCatalog(icons)
			return nil
		}},
		step{name: "items", policy: stepFatal, run: func(ctx context.Context, tx database.Store) error {
			return p.stepItems(ctx, tx, r)
		}},
	)

	for i := range d.Restaurant.Menus {
		steps = append(steps, step{
			name:   "qr:" + menuLabel(d.Restaurant.Menus[i]),
			policy: stepTolerant,
			run: func(ctx context.Context, tx database.Store) error {
				m := r.menus[i]
				q, err := p.catalog.qr.Generate(ctx, tx, m.ID, p.catalog.qr.PublicURL(r.rest.Slug))
				if err != nil {
					return err
				}
				r.res.Counts.QRCodes++
				r.t.out.add(messagequeue.SubjectQRGenerated, qrEvent(q))
				return nil
			},
		})
	}

	steps = append(steps, step{name: "translations", policy: stepFatal, run: func(ctx context.Context, tx database.Store) error {
		return p.stepTranslations(ctx, tx, r)
	}})

	steps = append(steps, step{name: "audit:restaurant", policy: stepTolerant, run: func(ctx context.Context, tx database.Store) error {
		return p.audit(ctx, tx, r, audit.Entry{
			TenantID: r.tenant.ID,
			Action:   audit.ActionRestaurantCreate,
			Entity:   "restaurant",
			EntityID: r.rest.ID,
			Payload:  map[string]any{"name": r.rest.Name, "slug": r.rest.Slug},
		})
	}})
	for i := range d.Restaurant.Menus {
		steps = append(steps, step{
			name:   "audit:" + menuLabel(d.Restaurant.Menus[i]),
			policy: stepTolerant,
			run: func(ctx context.Context, tx database.Store) error {
				m := r.menus[i]
				return p.audit(ctx, tx, r, audit.Entry{
					TenantID: m.TenantID,
					Action:   audit.ActionMenuCreate,
					Entity:   "menu",
					EntityID: m.ID,
					Payload:  map[string]any{"name": m.Name, "slug": m.Slug, "status": m.Status},
				})
			},
		})
	}
	return steps
}

func menuLabel(m provision.MenuSpec) string {
	if m.Slug != "" {
		return m.Slug
	}
	return slug.Normalize(m.Name)
}

func (p *Provisioner) stepTenant(ctx context.Context, tx database.Store, r *run) error {
	req := r.d.Tenant.WithDefaults(p.defaults.Plan, tenant.Settings{
		Timezone: p.defaults.Timezone,
		Currency: p.defaults.Currency,
		Language: p.defaults.Language,
	})
	if err := req.Validate(); err != nil {
		return invalid("tenant", err)
	}
	t := &tenant.Tenant{
		ID:       newID(),
		Name:     strings.TrimSpace(req.Name),
		Plan:     req.Plan,
		Settings: req.Settings,
		Status:   req.Status,
	}
	if err := tx.CreateTenant(ctx, t); err != nil {
		return fmt.Errorf("create tenant %q: %w", t.Name, err)
	}
	r.tenant = t
	r.res.TenantID = t.ID
	r.t.out.add(messagequeue.SubjectTenantCreated, messagequeue.TenantCreatedPayload{TenantID: t.ID, Name: t.Name, Plan: t.Plan})
	return nil
}

func (p *Provisioner) stepUsers(ctx context.Context, tx database.Store, r *run) error {
	actorEmail := r.d.ActorEmail()
	for _, req := range r.d.Users {
		req.TenantID = &r.tenant.ID
		u, err := p.createUser(ctx, tx, req)
		if err != nil {
			return err
		}
		r.res.UserIDs = append(r.res.UserIDs, u.ID)
		r.res.Counts.Users++
		if u.Email == actorEmail {
			id := u.ID
			r.res.ActorID = id
			r.t.actor = &id
		}
	}
	if r.t.actor == nil {
		return fmt.Errorf("%w: actor %q was not created", domain.ErrValidation, actorEmail)
	}
	return nil
}

func (p *Provisioner) stepRestaurant(ctx context.Context, tx database.Store, r *run) error {
	req := r.d.Restaurant.CreateRequest
	req.TenantID = r.tenant.ID
	rest, err := p.catalog.createRestaurant(ctx, tx, req, slug.FailOnConflict)
	if err != nil {
		return err
	}
	r.rest = rest
	r.res.RestaurantID = rest.ID
	return nil
}

func (p *Provisioner) stepMenus(ctx context.Context, tx database.Store, r *run) error {
	for _, ms := range r.d.Restaurant.Menus {
		m, _, err := p.catalog.createMenu(ctx, tx, menu.CreateRequest{
			TenantID:     r.tenant.ID,
			RestaurantID: r.rest.ID,
			Name:         ms.Name,
			Slug:         ms.Slug,
			Status:       menu.Status(strings.ToUpper(ms.Status)),
		}, slug.FailOnConflict)
		if err != nil {
			return err
		}
		r.menus = append(r.menus, m)
		r.res.MenuIDs = append(r.res.MenuIDs, m.ID)
		r.res.Counts.Menus++
	}
	return nil
}

func (p *Provisioner) stepSections(ctx context.Context, tx database.Store, r *run) error {
	r.sections = make([][]*menu.Section, len(r.menus))
	for mi, ms := range r.d.Restaurant.Menus {
		for si, ss := range ms.Sections {
			sec, err := p.catalog.createSection(ctx, tx, menu.CreateSectionRequest{
				TenantID:  r.tenant.ID,
				MenuID:    r.menus[mi].ID,
				Name:      ss.Name,
				SortOrder: si + 1,
			})
			if err != nil {
				return err
			}
			r.sections[mi] = append(r.sections[mi], sec)
			r.res.Counts.Sections++
		}
	}
	return nil
}

func (p *Provisioner) stepItems(ctx context.Context, tx database.Store, r *run) error {
	r.items = make([]map[string]*menu.Item, len(r.menus))
	currency := r.tenant.Settings.Currency
	for mi, ms := range r.d.Restaurant.Menus {
		r.items[mi] = make(map[string]*menu.Item)
		for si, ss := range ms.Sections {
			for ii, is := range ss.Items {
				prices := make([]menu.PriceInput, 0, len(is.Prices))
				for _, ps := range is.Prices {
					cur := strings.ToUpper(ps.Currency)
					if cur == "" {
						cur = currency
					}
					label := ps.Label
					if label == "" {
						label = "Regular"
					}
					prices = append(prices, menu.PriceInput{Currency: cur, Label: label, AmountMinor: ps.Amount.Minor()})
				}
				it, err := p.catalog.createItem(ctx, tx, menu.CreateItemRequest{
					TenantID:    r.tenant.ID,
					MenuID:      r.menus[mi].ID,
					SectionID:   r.sections[mi][si].ID,
					Name:        is.Name,
					Description: is.Description,
					SortOrder:   ii + 1,
					Prices:      prices,
				})
				if err != nil {
					return err
				}
				warn, err := p.catalog.tagItem(ctx, tx, it, r.icons, is.Icons)
				for _, w := range warn {
					logger.FromContext(ctx, p.log).Warn("unknown icon skipped", "warning", w)
					r.res.Warn(w)
				}
				if err != nil {
					return err
				}
				r.items[mi][strings.ToLower(it.Name)] = it
				r.res.Counts.Items++
				r.res.Counts.Prices += len(it.Prices)
				r.res.Counts.IconTags += len(it.IconIDs)
			}
		}
	}
	return nil
}

func (p *Provisioner) stepTranslations(ctx context.Context, tx database.Store, r *run) error {
	for i, ts := range r.d.Translations {
		entityID, err := r.resolveEntity(ts)
		if err != nil {
			return fmt.Errorf("translations[%d]: %w", i, err)
		}
		tr := &translation.Translation{
			TenantID:   r.tenant.ID,
			Locale:     ts.Locale,
			EntityType: ts.Entity,
			EntityID:   entityID,
			Key:        ts.Key,
			Value:      ts.Value,
		}
		if err := p.catalog.createTranslation(ctx, tx, tr); err != nil {
			return fmt.Errorf("translations[%d]: %w", i, err)
		}
		r.res.Counts.Translations++
	}
	return nil
}

func (r *run) resolveEntity(ts provision.TranslationSpec) (string, error) {
	if ts.Entity == translation.EntityRestaurant {
		return r.rest.ID, nil
	}
	mi := -1
	want := slug.Normalize(ts.Menu)
	for i, m := range r.menus {
		if m.Slug == want {
			mi = i
			break
		}
	}
	if mi < 0 {
		return "", fmt.Errorf("%w: no menu %q", domain.ErrValidation, ts.Menu)
	}

	switch ts.Entity {
	case translation.EntityMenu:
		return r.menus[mi].ID, nil
	case translation.EntitySection:
		for _, sec := range r.sections[mi] {
			if strings.EqualFold(sec.Name, ts.Name) {
				return sec.ID, nil
			}
		}
	case translation.EntityItem:
		if it, ok := r.items[mi][strings.ToLower(ts.Name)]; ok {
			return it.ID, nil
		}
	}
	return "", fmt.Errorf("%w: no %s %q in menu %q", domain.ErrValidation, ts.Entity, ts.Name, ts.Menu)
}

func (p *Provisioner) audit(ctx context.Context, tx database.Store, r *run, e audit.Entry) error {
	e.ActorUserID = r.t.actor
	l, err := p.catalog.audit.Record(ctx, tx, e)
	if err != nil {
		return err
	}
	r.res.Counts.AuditLogs++
	r.t.out.add(messagequeue.SubjectAudit, auditEvent(l))
	return nil
}

func (p *Provisioner) afterCommit(ctx context.Context, r *run) {
	if r.rest != nil {
		slugs := make([]string, len(r.menus))
		for i, m := range r.menus {
			slugs[i] = m.Slug
		}
		r.t.touch(r.tenant.ID, r.rest.Slug, slugs...)
		r.t.out.add(messagequeue.SubjectRestaurantCreated, messagequeue.RestaurantCreatedPayload{
			TenantID:     r.tenant.ID,
			RestaurantID: r.rest.ID,
			Slug:         r.rest.Slug,
			MenuIDs:      r.res.MenuIDs,
		})
	}
	p.catalog.finish(ctx, r.t)
}

// ProvisionAll provisions independent descriptions concurrently. Each run
// has its own transaction; one failing run does not affect the others.
// results[i] is nil when descriptions[i] failed.
func (p *Provisioner) ProvisionAll(ctx context.Context, descriptions []*provision.Description) ([]*provision.Result, error) {
	results := make([]*provision.Result, len(descriptions))
	errs := make([]error, len(descriptions))

	var g errgroup.Group
	g.SetLimit(p.parallelism)
	for i, d := range descriptions {
		g.Go(func() error {
			results[i], errs[i] = p.Provision(ctx, d)
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// CreateTenant provisions a tenant with its first ADMIN and no restaurant.
func (p *Provisioner) CreateTenant(ctx context.Context, req tenant.CreateRequest, admin user.CreateRequest) (*provision.Result, error) {
	admin.Role = user.RoleAdmin
	return p.Provision(ctx, &provision.Description{
		Tenant: req,
		Users:  []user.CreateRequest{admin},
	})
}

// CreateTenantAdmin adds an ADMIN to an existing operational tenant.
func (p *Provisioner) CreateTenantAdmin(ctx context.Context, tenantID string, req user.CreateRequest) (*user.User, error) {
	req.Role = user.RoleAdmin
	req.TenantID = &tenantID

	var u *user.User
	err := p.store.InTx(ctx, func(tx database.Store) error {
		t, err := tx.GetTenant(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("tenant %s: %w", tenantID, err)
		}
		if !t.Status.Operational() {
			return fmt.Errorf("tenant %s: %w: status is %s", tenantID, domain.ErrValidation, t.Status)
		}
		u, err = p.createUser(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, p.log).Info("tenant admin created", "tenant_id", tenantID, "user_id", u.ID, "email", u.Email)
	return u, nil
}

// BootstrapSuperAdmin creates the platform administrator. It refuses with
// domain.ErrDuplicateIdentity when a platform identity with the email exists;
// the existing user is not touched.
func (p *Provisioner) BootstrapSuperAdmin(ctx context.Context, email, password, name string) (*user.User, error) {
	if name == "" {
		name = "Platform Administrator"
	}
	req := user.CreateRequest{Email: email, Name: name, Password: password, Role: user.RoleSuperAdmin}

	var u *user.User
	err := p.store.InTx(ctx, func(tx database.Store) error {
		if err := req.Validate(p.minPassword); err != nil {
			return invalid("super admin", err)
		}
		existing, err := tx.GetUserByEmail(ctx, user.NormalizeEmail(email), nil)
		switch {
		case err == nil:
			return fmt.Errorf("platform user %s: %w", existing.Email, domain.ErrDuplicateIdentity)
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("look up platform user: %w", err)
		}
		u, err = p.createUser(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, p.log).Info("super admin bootstrapped", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// createUser validates, hashes and stores a user. The plaintext password
// never leaves this function.
func (p *Provisioner) createUser(ctx context.Context, tx database.Store, req user.CreateRequest) (*user.User, error) {
	if err := req.Validate(p.minPassword); err != nil {
		return nil, invalid("user "+user.NormalizeEmail(req.Email), err)
	}
	digest, err := p.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", user.NormalizeEmail(req.Email), err)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, _, _ = strings.Cut(req.Email, "@")
	}
	u := &user.User{
		ID:           newID(),
		TenantID:     req.TenantID,
		Email:        user.NormalizeEmail(req.Email),
		Name:         name,
		PasswordHash: digest,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := tx.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user %s: %w", u.Email, err)
	}
	return u, nil
}

// EnsureIcons upserts the shared icon catalog and returns the number of
// icons written.
func (p *Provisioner) EnsureIcons(ctx context.Context, icons []icon.Icon) (int, error) {
	err := p.store.InTx(ctx, func(tx database.Store) error {
		for i := range icons {
			if err := icons[i].Validate(); err != nil {
				return invalid("icon", err)
			}
			if icons[i].ID == "" {
				icons[i].ID = newID()
			}
			if err := tx.UpsertIcon(ctx, &icons[i]); err != nil {
				return fmt.Errorf("upsert icon %s: %w", icons[i].Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(icons), nil
}

// ListUsers lists a tenant's users, or every user when tenantID is empty.
func (p *Provisioner) ListUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	return p.store.ListUsers(ctx, tenantID)
}
