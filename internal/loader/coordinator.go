package loader

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/lootbox/internal/assets"
	"github.com/zjrosen/lootbox/internal/catalogue"
	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/scene"
	"github.com/zjrosen/lootbox/internal/tracing"
)

var ErrNoCapability = errors.New("no loading capability registered")

// ModelCapability fetches and decodes one model file.
type ModelCapability interface {
	LoadModel(ctx context.Context, locator string) (*scene.Model, error)
}

// TextureCapability fetches and decodes one image.
type TextureCapability interface {
	LoadTexture(ctx context.Context, locator string) (*scene.Texture, error)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithModelCapability registers the decoder for a model variant.
func WithModelCapability(variant catalogue.Variant, capability ModelCapability) Option {
	return func(c *Coordinator) {
		c.models[variant] = capability
	}
}

// WithTextureCapability registers the image decoder.
func WithTextureCapability(capability TextureCapability) Option {
	return func(c *Coordinator) {
		c.textures = capability
	}
}

// WithVerifyLoot logs every loot name without a registered model once a session settles.
func WithVerifyLoot(enabled bool) Option {
	return func(c *Coordinator) {
		c.verifyLoot = enabled
	}
}

// Coordinator issues one request per catalogue entry and populates the registry
// as each settles.
type Coordinator struct {
	catalogue  catalogue.Catalogue
	registry   *assets.Registry
	models     map[catalogue.Variant]ModelCapability
	textures   TextureCapability
	verifyLoot bool
}

// NewCoordinator creates a Coordinator over an immutable catalogue.
func NewCoordinator(cat catalogue.Catalogue, registry *assets.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		catalogue: cat,
		registry:  registry,
		models:    make(map[catalogue.Variant]ModelCapability),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the coordinator writes to.
func (c *Coordinator) Registry() *assets.Registry { return c.registry }

// Load submits every catalogue entry on session in declaration order, seals it,
// and returns a future for the aggregate. Loot names are recorded as entries are
// submitted. Errors are returned only for a reused session or a missing
// capability, both detected before any request is issued, or for a session
// sealed by another caller mid-submission. In that last case the session is
// left sealed, so the requests already issued still settle and Done fires.
func (c *Coordinator) Load(ctx context.Context, session *Session) (*Future, error) {
	entries := c.catalogue.Entries()
	for _, entry := range entries {
		if err := c.checkCapability(entry); err != nil {
			return nil, err
		}
	}
	if !session.claim() {
		return nil, ErrSessionReused
	}

	if c.verifyLoot {
		session.OnLoad(func(Report) { c.reportMissingLoot(session.ID()) })
	}

	log.Info(log.CatLoader, "Loading catalogue", "session", session.ID(), "entries", len(entries))

	for _, entry := range entries {
		if err := c.submit(ctx, session, entry); err != nil {
			session.Seal()
			return nil, fmt.Errorf("submit %s: %w", entry.Name, err)
		}
	}
	session.Seal()
	return &Future{session: session}, nil
}

func (c *Coordinator) checkCapability(entry catalogue.AssetDescriptor) error {
	switch entry.Kind {
	case catalogue.KindModel:
		if c.models[entry.Variant] == nil {
			return fmt.Errorf("%w: %s variant %q", ErrNoCapability, entry.Name, entry.Variant)
		}
	case catalogue.KindTexture:
		if c.textures == nil {
			return fmt.Errorf("%w: %s texture", ErrNoCapability, entry.Name)
		}
	default:
		return fmt.Errorf("%w: %s kind %q", ErrNoCapability, entry.Name, entry.Kind)
	}
	return nil
}

func (c *Coordinator) submit(ctx context.Context, session *Session, entry catalogue.AssetDescriptor) error {
	name, locator := entry.Name, entry.Locator

	if entry.Kind == catalogue.KindTexture {
		capability := c.textures
		return Submit(ctx, session, name, locator,
			func(ctx context.Context) (*scene.Texture, error) {
				annotate(ctx, entry)
				return capability.LoadTexture(ctx, locator)
			},
			func(tex *scene.Texture) {
				if tex != nil && entry.ColorSpace != scene.ColorSpaceNone {
					tex.ColorSpace = entry.ColorSpace
				}
				c.registry.SetTexture(name, tex)
			})
	}

	capability := c.models[entry.Variant]
	if entry.Loot {
		c.registry.RecordLoot(name)
	}
	return Submit(ctx, session, name, locator,
		func(ctx context.Context) (*scene.Model, error) {
			annotate(ctx, entry)
			return capability.LoadModel(ctx, locator)
		},
		func(model *scene.Model) {
			c.registry.SetModel(name, model)
		})
}

// annotate tags the request span with the catalogue entry's kind and variant.
func annotate(ctx context.Context, entry catalogue.AssetDescriptor) {
	trace.SpanFromContext(ctx).SetAttributes(
		tracing.AttrAssetKind.String(string(entry.Kind)),
		tracing.AttrAssetVariant.String(string(entry.Variant)),
	)
}

func (c *Coordinator) reportMissingLoot(sessionID string) {
	missing := c.registry.MissingLoot()
	for _, name := range missing {
		log.Warn(log.CatLoader, "Loot name has no loaded model", "session", sessionID, "name", name)
	}
	if len(missing) == 0 {
		log.Debug(log.CatLoader, "All loot names resolved", "session", sessionID)
	}
}
