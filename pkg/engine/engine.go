// Package engine assembles the routing and pipeline components into one
// entry point, so callers hold a single value instead of threading the
// registry, scorer, router and orchestrator around separately.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/zen-systems/queryflow/pkg/adapter"
	"github.com/zen-systems/queryflow/pkg/capability"
	"github.com/zen-systems/queryflow/pkg/config"
	"github.com/zen-systems/queryflow/pkg/crypto"
	"github.com/zen-systems/queryflow/pkg/disambig"
	"github.com/zen-systems/queryflow/pkg/evidence"
	"github.com/zen-systems/queryflow/pkg/exec"
	"github.com/zen-systems/queryflow/pkg/multitarget"
	"github.com/zen-systems/queryflow/pkg/pipeline"
	"github.com/zen-systems/queryflow/pkg/retrieval"
	"github.com/zen-systems/queryflow/pkg/router"
	"github.com/zen-systems/queryflow/pkg/scoring"
)

// Engine wires the registry, scorer, router and pipeline together.
type Engine struct {
	cfg          *config.Config
	registry     *capability.Registry
	scorer       *scoring.Scorer
	codec        *disambig.Codec
	router       *router.Router
	orchestrator *pipeline.Orchestrator
	evidenceDir  string
}

// Options customize engine assembly beyond what config covers.
type Options struct {
	// Registry is required: the engine routes over these capabilities.
	Registry *capability.Registry
	// Adapter overrides the config-selected generation adapter. Tests use
	// this to run fully offline.
	Adapter adapter.Adapter
	// Sources feed the retrieval stage. Empty means retrieval returns
	// nothing and generation runs without context.
	Sources []retrieval.Source
	// EvidenceDir enables audit bundles when non-empty.
	EvidenceDir string
	// Debug enables stage logging across components.
	Debug bool
}

// New assembles an engine from configuration.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Registry == nil || opts.Registry.Len() == 0 {
		return nil, fmt.Errorf("at least one capability is required")
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	scorer := scoring.NewScorer(embedder, scoring.WithDebug(opts.Debug))

	signer, err := crypto.LoadSigner(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load token signer: %w", err)
	}
	codec := disambig.NewCodec(disambig.WithSigner(signer))
	resolver := disambig.NewResolver(codec, disambig.WithMaxOptions(cfg.Routing.MaxDisambiguationOptions))

	rt := router.NewRouter(opts.Registry, scorer, resolver, codec,
		router.WithThresholds(router.Thresholds{
			Include: cfg.Routing.IncludeThreshold,
			Exec:    cfg.Routing.ExecThreshold,
			Gap:     cfg.Routing.GapThreshold,
			TopN:    cfg.Routing.TopN,
		}),
		router.WithDebug(opts.Debug),
	)

	gen, err := buildAdapter(cfg, opts.Adapter)
	if err != nil {
		return nil, err
	}

	aliases, err := config.LoadAliasesWithFallback(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load model aliases: %w", err)
	}
	model := aliases.Resolve(cfg.Generation.Model)
	interpModel := aliases.Resolve(cfg.Generation.InterpreterModel)

	generator := pipeline.NewAdapterGenerator(gen, model,
		pipeline.WithLanguage(cfg.Execution.Language))
	interpreter := pipeline.NewAdapterInterpreter(gen, interpModel)

	policy := exec.NewPolicy(cfg.Execution.DatasetRoot, cfg.Execution.Language)
	runner := exec.NewSubprocessRunner(policy,
		exec.WithTimeout(time.Duration(cfg.Execution.TimeoutSeconds)*time.Second))

	retriever := retrieval.NewRetriever(opts.Sources, retrieval.WithRetrieverDebug(opts.Debug))

	multi := multitarget.NewExecutor(
		multitarget.WithWorkerCap(cfg.Execution.MultiTargetWorkerCap),
		multitarget.WithTargetTimeout(time.Duration(cfg.Execution.TargetTimeoutSeconds)*time.Second),
	)

	pipeCfg := pipeline.Config{
		Mode:           pipelineMode(cfg.Pipeline.Mode),
		MaxRetries:     cfg.Pipeline.MaxRetries,
		RetrievalK:     cfg.Pipeline.RetrievalK,
		PlanRetrievalK: cfg.Pipeline.PlanRetrievalK,
	}
	orchOpts := []pipeline.OrchestratorOption{
		pipeline.WithMultiTarget(multi),
		pipeline.WithOrchestratorDebug(opts.Debug),
	}
	if pipeCfg.Mode == pipeline.ModePlanFirst {
		orchOpts = append(orchOpts, pipeline.WithPlanner(pipeline.NewAdapterPlanner(gen, model)))
	}
	orchestrator := pipeline.NewOrchestrator(rt, retriever, generator, runner, interpreter, pipeCfg, orchOpts...)

	return &Engine{
		cfg:          cfg,
		registry:     opts.Registry,
		scorer:       scorer,
		codec:        codec,
		router:       rt,
		orchestrator: orchestrator,
		evidenceDir:  opts.EvidenceDir,
	}, nil
}

// Ask runs one query through routing and the pipeline.
func (e *Engine) Ask(ctx context.Context, query string, targetPaths []string) (*pipeline.Outcome, error) {
	return e.ask(ctx, pipeline.Query{Text: query, TargetPaths: targetPaths})
}

// AskForced runs one query restricted to the named capability.
func (e *Engine) AskForced(ctx context.Context, query, capabilityName string, targetPaths []string) (*pipeline.Outcome, error) {
	return e.ask(ctx, pipeline.Query{Text: query, TargetPaths: targetPaths, ForcedCapability: capabilityName})
}

func (e *Engine) ask(ctx context.Context, q pipeline.Query) (*pipeline.Outcome, error) {
	var writer *evidence.Writer
	if e.evidenceDir != "" {
		w, err := evidence.NewWriter(e.evidenceDir)
		if err == nil {
			writer = w
			writer.WriteRun(evidence.RunRecord{Query: q.Text, TargetPaths: q.TargetPaths})
			q.Sink = writer.NewSink()
		}
	}

	outcome, err := e.orchestrator.Run(ctx, q)
	if writer != nil && outcome != nil {
		if outcome.QueryState.Decision != nil {
			writer.WriteDecision(outcome.QueryState.Decision)
		}
		writer.WriteTurn(outcome.QueryState)
	}
	return outcome, err
}

// Registry exposes the capability registry for listing.
func (e *Engine) Registry() *capability.Registry {
	return e.registry
}

// Codec exposes the resume token codec, e.g. for inspecting user replies.
func (e *Engine) Codec() *disambig.Codec {
	return e.codec
}

func buildEmbedder(cfg *config.Config) (scoring.Embedder, error) {
	switch cfg.Embedding.Backend {
	case "ollama":
		return scoring.NewOllamaEmbedder(cfg.Embedding.Endpoint, cfg.Embedding.Model, cfg.Embedding.Dimensions), nil
	case "google":
		return scoring.NewGenAIEmbedder(cfg.GoogleAPIKey, cfg.Embedding.Model)
	case "hash", "":
		return scoring.NewHashEmbedder(cfg.Embedding.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Embedding.Backend)
	}
}

func buildAdapter(cfg *config.Config, override adapter.Adapter) (adapter.Adapter, error) {
	if override != nil {
		return override, nil
	}
	switch cfg.Generation.Adapter {
	case "anthropic":
		return adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
	case "openai":
		return adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
	case "google":
		return adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
	case "deepseek":
		return adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
	case "mock":
		return adapter.NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", cfg.Generation.Adapter)
	}
}

func pipelineMode(mode string) pipeline.Mode {
	if mode == "plan_first" {
		return pipeline.ModePlanFirst
	}
	return pipeline.ModeCapabilityFirst
}

// DefaultEvidenceDir returns the audit bundle location under the config dir.
func DefaultEvidenceDir(cfg *config.Config) string {
	return filepath.Join(cfg.ConfigDir, "runs")
}
