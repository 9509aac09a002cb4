package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mvillagomez/demandas/internal/articleindex"
	"github.com/mvillagomez/demandas/internal/assembler"
	"github.com/mvillagomez/demandas/internal/config"
	"github.com/mvillagomez/demandas/internal/extract"
	"github.com/mvillagomez/demandas/internal/httpapi"
	"github.com/mvillagomez/demandas/internal/llm"
	"github.com/mvillagomez/demandas/internal/meter"
	"github.com/mvillagomez/demandas/internal/store"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "demandas",
		Short:         "Asistente para la redacción y consulta de demandas legales",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "demandas.yaml", "ruta del archivo de configuración YAML")
	root.AddCommand(
		newServeCmd(),
		newIndexCmd(),
		newSearchCmd(),
		newSegmentCmd(),
		newSchemaCmd(),
		newDatosCmd(),
		newGenerateCmd(),
		newAnonymizeCmd(),
		newEntitiesCmd(),
		newExportCmd(),
		newCreditsCmd(),
		newStatsCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

// setupTracing installs an OTLP trace exporter when an endpoint is
// configured. With no endpoint the default no-op provider stays in place.
func setupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "demandas"),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			shutdownTracing, err := setupTracing(ctx, cfg.Tracing.OTLPEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracing(shCtx)
			}()

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			reg := prometheus.NewRegistry()
			m := meter.New(st, meter.Pricing{
				InPerMillion:  cfg.Credits.InPerMillion,
				OutPerMillion: cfg.Credits.OutPerMillion,
			}, cfg.Credits.Enforce, reg)

			var caller llm.Caller
			if ac, err := llm.NewAnthropicCallerFromEnv(cfg.Model, m); err != nil {
				log.Printf("llm disabled: %v", err)
			} else {
				caller = ac
			}

			manager := articleindex.NewManager(cfg.CorpusDir)
			load := func() ([]articleindex.Document, error) {
				return extract.LoadCorpus(cfg.CorpusDir)
			}
			if docs, err := load(); err != nil {
				log.Printf("corpus load (%s): %v", cfg.CorpusDir, err)
			} else {
				ix := manager.Rebuild(docs)
				log.Printf("indexed %d articles from %s", ix.Len(), cfg.CorpusDir)
			}

			watcher := articleindex.NewWatcher(&articleindex.Watched{Manager: manager, Load: load}, 0)
			go func() {
				err := watcher.Run(ctx, cfg.CorpusDir, func(err error) {
					log.Printf("corpus rebuild: %v", err)
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("corpus watch: %v", err)
				}
			}()

			newGenerator := func() *assembler.Generator {
				if caller == nil {
					return assembler.New()
				}
				return assembler.New(assembler.RetrievalResolver{
					Retriever: extract.DirRetriever{Dir: cfg.CasesDir},
					Caller:    caller,
				})
			}

			srv := &http.Server{
				Addr:    cfg.HTTP.Addr,
				Handler: httpapi.NewServer(cfg.TemplatesDir, newGenerator, manager, st, caller, reg),
			}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			log.Printf("demandas listening on %s", cfg.HTTP.Addr)

			select {
			case <-ctx.Done():
				shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shCtx)
			case err := <-errCh:
				return err
			}
		},
	}
}
