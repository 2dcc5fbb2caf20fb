package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/lootbox/internal/assets"
	"github.com/zjrosen/lootbox/internal/catalogue"
	"github.com/zjrosen/lootbox/internal/flags"
	"github.com/zjrosen/lootbox/internal/formats"
	"github.com/zjrosen/lootbox/internal/journal"
	"github.com/zjrosen/lootbox/internal/loader"
	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/presentation"
	"github.com/zjrosen/lootbox/internal/pubsub"
	"github.com/zjrosen/lootbox/internal/tracing"
)

type loadOptions struct {
	bindings []string
	verbose  bool
}

func newLoadCmd(a *app) *cobra.Command {
	opts := &loadOptions{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load every catalogue entry and report when the session settles",
		Example: `  lootbox load
  lootbox load --bind chest-body=atlas --bind chest-lid=atlas
  lootbox load --verbose --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runLoad(cmd, opts)
		},
	}
	cmd.Flags().StringArrayVar(&opts.bindings, "bind", nil,
		"apply a texture to a model once loaded, as model=texture (repeatable)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"print each request as it starts and settles")
	return cmd
}

type binding struct {
	model, texture string
}

func parseBindings(raw []string) ([]binding, error) {
	out := make([]binding, 0, len(raw))
	for _, r := range raw {
		model, texture, ok := strings.Cut(r, "=")
		model, texture = strings.TrimSpace(model), strings.TrimSpace(texture)
		if !ok || model == "" || texture == "" {
			return nil, fmt.Errorf("invalid --bind %q: want model=texture", r)
		}
		out = append(out, binding{model: model, texture: texture})
	}
	return out, nil
}

func (a *app) runLoad(cmd *cobra.Command, opts *loadOptions) error {
	bindings, err := parseBindings(opts.bindings)
	if err != nil {
		return err
	}

	cat, err := a.catalogue()
	if err != nil {
		return err
	}

	src, err := a.source()
	if err != nil {
		return err
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      a.cfg.Tracing.Enabled,
		Exporter:     a.cfg.Tracing.Exporter,
		FilePath:     a.resolve(a.cfg.Tracing.FilePath),
		OTLPEndpoint: a.cfg.Tracing.OTLPEndpoint,
		SampleRate:   a.cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("creating trace provider: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	registry := assets.NewRegistry()
	coordinator := loader.NewCoordinator(cat, registry,
		loader.WithModelCapability(catalogue.VariantGLTF, formats.NewGLTFLoader(src)),
		loader.WithModelCapability(catalogue.VariantFBX, formats.NewFBXLoader(src)),
		loader.WithTextureCapability(formats.NewImageLoader(src)),
		loader.WithVerifyLoot(a.flags.Enabled(flags.FlagVerifyLoot)),
	)

	broker := pubsub.NewBrokerWithBuffer[loader.Progress](2*cat.Len() + 8)
	defer broker.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.Load.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Load.Timeout)
		defer cancel()
	}

	var progressDone chan struct{}
	if opts.verbose {
		progressDone = make(chan struct{})
		subCtx, stop := context.WithCancel(ctx)
		defer stop()
		events := broker.Subscribe(subCtx)
		go func() {
			defer close(progressDone)
			printProgress(cmd.ErrOrStderr(), events)
		}()
	}

	session := loader.NewSession(
		loader.WithBroker(broker),
		loader.WithTracer(provider.Tracer()),
		loader.WithMaxInFlight(int64(a.cfg.Assets.MaxInFlight)),
	)
	future, err := coordinator.Load(ctx, session)
	if err != nil {
		return err
	}

	report, err := future.Wait(ctx)
	if err != nil {
		return fmt.Errorf("session %s did not settle, %d requests pending: %w",
			future.SessionID(), session.Pending(), err)
	}
	if progressDone != nil {
		<-progressDone
		if n := broker.Dropped(); n > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "(%d progress events dropped)\n", n)
		}
	}
	stats := src.Stats()
	log.Debug(log.CatCache, "fetch cache", "hits", stats.Hits, "fetches", stats.Fills, "shared", stats.Shared)

	if a.flags.Enabled(flags.FlagJournal) {
		if err := a.record(report); err != nil {
			log.ErrorErr(log.CatJournal, "failed to record session", err, "session", report.SessionID)
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: session not journaled: %v\n", err)
		}
	}

	dto := presentation.FromReport(report, registry.LootNames(), registry.MissingLoot())
	binder := assets.NewBinder(registry)
	for _, b := range bindings {
		n, found := binder.ApplyByName(b.model, b.texture)
		_, texFound := registry.Texture(b.texture)
		dto.Bindings = append(dto.Bindings, presentation.BindingDTO{
			Model:    b.model,
			Texture:  b.texture,
			Found:    found && texFound,
			Surfaces: n,
		})
	}

	if err := a.formatter(cmd).FormatReport(dto); err != nil {
		return err
	}
	if report.Failed() > 0 {
		return fmt.Errorf("%d of %d requests failed", report.Failed(), report.Total)
	}
	return nil
}

// source builds the byte source for every capability: HTTP when a base URL
// is configured, the asset root otherwise, with a shared fetch cache on top.
func (a *app) source() (*formats.CachedSource, error) {
	var src formats.Source
	if a.cfg.Assets.BaseURL != "" {
		httpSrc, err := formats.NewHTTPSource(a.cfg.Assets.BaseURL, http.DefaultClient)
		if err != nil {
			return nil, err
		}
		src = httpSrc
	} else {
		root := a.resolve(a.cfg.Assets.Root)
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("assets.root: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("assets.root %s is not a directory", root)
		}
		src = formats.NewFSSource(os.DirFS(root))
	}
	return formats.NewCachedSource(src, a.cfg.Assets.CacheTTL), nil
}

func (a *app) record(report loader.Report) error {
	j, err := journal.Open(a.resolve(a.cfg.Journal.Path))
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()
	return j.Record(context.Background(), report)
}

// printProgress writes one line per event until the session settles or the
// subscription closes.
func printProgress(w io.Writer, events <-chan pubsub.Event[loader.Progress]) {
	for ev := range events {
		p := ev.Payload
		switch ev.Type {
		case pubsub.ItemStartedEvent:
			fmt.Fprintf(w, "start  %s (%s)\n", p.Name, p.Locator)
		case pubsub.ItemLoadedEvent:
			fmt.Fprintf(w, "ok     %s\n", p.Name)
		case pubsub.ItemFailedEvent:
			fmt.Fprintf(w, "FAIL   %s: %v\n", p.Name, p.Err)
		case pubsub.SessionSettledEvent:
			if p.Report != nil {
				fmt.Fprintf(w, "settled %d/%d\n", p.Report.Loaded, p.Report.Total)
			}
			return
		}
	}
}
