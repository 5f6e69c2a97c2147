package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/ppiankov/factline/internal/cache"
	"github.com/ppiankov/factline/internal/extract"
	"github.com/ppiankov/factline/internal/llm"
	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
	"github.com/ppiankov/factline/internal/render"
	"github.com/ppiankov/factline/internal/retrieve"
	"github.com/ppiankov/factline/internal/score"
	"github.com/ppiankov/factline/internal/store"
)

// Retriever gathers the evidence pool of a request and selects candidates from it
type Retriever interface {
	Gather(ctx context.Context, queries []string) (retrieve.Gathered, model.Diagnostics)
	Select(gathered retrieve.Gathered, signatures []string, diag *model.Diagnostics) []model.EvidenceItem
}

// Deps are the collaborators of a pipeline. Assistant and Cache are optional.
type Deps struct {
	Retriever Retriever
	Assistant *llm.Assistant
	Cache     cache.Cache
}

// Pipeline orchestrates one fact-check: claim distillation, retrieval,
// scoring, the optional AI steps and rendering
type Pipeline struct {
	retriever Retriever
	assistant *llm.Assistant // nil when the AI collaborator is disabled
	cache     cache.Cache    // nil when caching is disabled
	claims    *extract.ClaimExtractor
	renderer  *render.Renderer
	config    *model.Config
	now       func() time.Time

	service *retrieve.Service // set by NewPipeline
	store   *store.Store
}

// New creates a pipeline over injected collaborators
func New(cfg *model.Config, deps Deps) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	return &Pipeline{
		retriever: deps.Retriever,
		assistant: deps.Assistant,
		cache:     deps.Cache,
		claims:    extract.NewClaimExtractor(),
		renderer:  render.New(cfg.Output),
		config:    cfg,
		now:       time.Now,
	}
}

// NewPipeline opens the evidence store and builds retrieval, caching and the
// AI collaborator from configuration. A provider that fails to initialize is
// logged and the pipeline runs without AI.
func NewPipeline(ctx context.Context, cfg *model.Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	st, err := store.Open(ctx, store.Config{DSN: cfg.Store.DSN})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	svc, err := retrieve.NewService(cfg, fetcher, st)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("build retrieval: %w", err)
	}

	c := cache.New(cfg.Cache)

	var assistant *llm.Assistant
	if cfg.LLM.Provider != "" {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
		if err != nil {
			lgr.Printf("[WARN] failed to initialize LLM provider %s: %v", cfg.LLM.Provider, err)
		} else if provider != nil {
			assistant = llm.NewAssistant(provider, c, cfg.Cache.AITTL)
			lgr.Printf("[INFO] AI collaborator enabled: %s", provider.Name())
		}
	}

	p := New(cfg, Deps{Retriever: svc, Assistant: assistant, Cache: c})
	p.service = svc
	p.store = st
	return p, nil
}

// Indexer returns the feed indexer, nil for pipelines built with New
func (p *Pipeline) Indexer() *retrieve.Indexer {
	if p.service == nil {
		return nil
	}
	return p.service.Indexer()
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *render.Renderer {
	return p.renderer
}

// Close releases the evidence store
func (p *Pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// Run fact-checks text. Retrieval and AI failures degrade the result and are
// never returned; only empty input and a cancelled context are errors.
func (p *Pipeline) Run(ctx context.Context, text string, mode model.Mode) (*model.Result, error) {
	text = strings.TrimSpace(text)
	if normalize.OneLine(text) == "" {
		return nil, model.ErrEmptyInput
	}

	parent := ctx
	if p.config.FactCheck.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.FactCheck.Timeout)
		defer cancel()
	}

	// 1. Distill and translate the claim
	claim := p.distill(ctx, text)
	var translatedKeywords []string
	if translated, ok := p.translate(ctx, claim); ok {
		claim.Translated = translated
		translatedKeywords = normalize.Keywords(translated, 7)
	}
	claim.Queries = extract.Queries(claim, p.config.FactCheck.QueryMax)

	// 2. Gather and select evidence
	gathered, diag := p.retriever.Gather(ctx, claim.Queries)
	if err := parent.Err(); err != nil {
		return nil, fmt.Errorf("fact-check cancelled: %w", err)
	}
	candidates := p.retriever.Select(gathered, claim.Signatures(translatedKeywords), &diag)

	// 3. Label and score
	var primary score.Labeler
	var aiLabeler *llm.EvidenceLabeler
	if p.assistant.Enabled() && p.config.LLM.Labels && len(candidates) > 0 {
		aiLabeler = llm.NewEvidenceLabeler(p.assistant)
		primary = aiLabeler
	}
	scorer := score.NewScorer(score.NewChainLabeler(primary, nil))
	scored := scorer.Score(ctx, claim, candidates, p.now())
	if aiLabeler != nil {
		diag.AILabels = aiLabeler.Labeled()
	}

	res := &model.Result{
		Claim:       claim,
		Mode:        mode,
		Score:       scored,
		Diagnostics: diag,
		CheckedAt:   p.now().Unix(),
	}

	// 4. Optional AI web verdict and reasoning
	p.blendWebVerdict(ctx, res)
	p.reason(ctx, res)

	lgr.Printf("[INFO] checked claim lang=%s candidates=%d verdict=%s truth=%.2f confidence=%.2f",
		claim.Lang, len(candidates), res.Score.Verdict, res.Score.TruthProb, res.Score.Confidence)
	return res, nil
}

// Report runs a fact-check and renders it. Reports are cached by mode and
// normalized text. Empty input renders the user-facing error line along
// with ErrEmptyInput.
func (p *Pipeline) Report(ctx context.Context, text string, mode model.Mode) (string, error) {
	key := cache.CacheKey(string(mode), normalize.Normalize(text))
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			lgr.Printf("[DEBUG] report cache hit")
			return string(cached), nil
		}
	}

	res, err := p.Run(ctx, text, mode)
	if err != nil {
		return p.renderer.RenderError(err), err
	}

	out := p.renderer.Render(res)
	if p.cache != nil {
		if err := p.cache.Set(key, []byte(out), p.config.Cache.ReportTTL); err != nil {
			lgr.Printf("[WARN] cache report: %v", err)
		}
	}
	return out, nil
}

// distill picks the claim with the AI collaborator, else heuristically
func (p *Pipeline) distill(ctx context.Context, text string) model.Claim {
	if p.assistant.Enabled() {
		if sentence, ok := p.assistant.DistillClaim(ctx, text); ok {
			return p.claims.FromText(sentence, "ai")
		}
		lgr.Printf("[WARN] AI claim distillation unavailable, using heuristic")
	}
	return p.claims.Distill(text)
}

// translate widens retrieval to the opposite language; AI only
func (p *Pipeline) translate(ctx context.Context, claim model.Claim) (string, bool) {
	target := claim.Lang.Opposite()
	if !p.assistant.Enabled() || target == model.LangUnknown {
		return "", false
	}
	return p.assistant.Translate(ctx, claim.Text, target)
}

func (p *Pipeline) blendWebVerdict(ctx context.Context, res *model.Result) {
	if !p.assistant.Enabled() || !p.config.LLM.WebVerdict {
		return
	}
	wv := p.assistant.WebVerdict(ctx, res.Claim)
	if !wv.OK {
		lgr.Printf("[WARN] AI web verdict skipped: %s", wv.Malformed)
		return
	}
	verdict := wv.Verdict
	res.WebVerdict = &verdict
	if blended, ok := score.Blend(res.Score, &verdict); ok {
		res.Score = blended
		res.Diagnostics.WebVerdictUsed = true
	}
}

func (p *Pipeline) reason(ctx context.Context, res *model.Result) {
	if !p.assistant.Enabled() || !p.config.LLM.Reasoning || res.Mode == model.ModeBrief {
		return
	}
	evidence := res.Score.Evidence
	if len(evidence) == 0 {
		return
	}
	if limit := res.Mode.EvidenceLimit(); len(evidence) > limit {
		evidence = evidence[:limit]
	}

	rr := p.assistant.Reason(ctx, res.Claim, evidence, res.Score)
	if !rr.OK {
		lgr.Printf("[WARN] AI reasoning skipped: %s", rr.Malformed)
		return
	}
	reasoning := rr.Reasoning
	res.Reasoning = &reasoning
}
