package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/logger"
)

var (
	errRunTimeout = errors.New("run timeout expired")
	errOutage     = errors.New("LLM backend unavailable")
)

// ContextSource builds the retrieval context for one review.
type ContextSource interface {
	Build(ctx context.Context, agent domain.AgentProfile, p domain.Paragraph) (*domain.RetrievalContext, error)
}

// RunOutcome is the result of dispatching every (agent, paragraph) pair.
type RunOutcome struct {
	// Findings holds exactly one finding per pair in agent-major, ordinal order.
	Findings []domain.ReviewFinding

	Aborted     bool
	AbortReason string
	TimedOut    bool
	Cancelled   bool

	// LLMCalls counts completed Complete calls, including failed ones.
	LLMCalls int64
}

// Stopped reports whether dispatch ended before every pair was attempted.
func (o *RunOutcome) Stopped() bool {
	return o.Aborted || o.TimedOut || o.Cancelled
}

// AgentRunner fans reviews out over a bounded worker pool.
type AgentRunner struct {
	llm        driven.LLMService
	contexts   ContextSource
	prompts    *PromptBuilder
	settings   domain.RunnerSettings
	completion driven.CompletionOptions
}

// NewAgentRunner creates a runner. Zero-valued settings fall back to the defaults.
func NewAgentRunner(
	llm driven.LLMService,
	contexts ContextSource,
	prompts *PromptBuilder,
	settings domain.RunnerSettings,
	completion driven.CompletionOptions,
) *AgentRunner {
	d := domain.DefaultAppSettings().Runner
	if settings.Workers <= 0 {
		settings.Workers = d.Workers
	}
	if settings.MaxInFlight <= 0 {
		settings.MaxInFlight = d.MaxInFlight
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = d.MaxAttempts
	}
	if settings.BaseDelay <= 0 {
		settings.BaseDelay = d.BaseDelay
	}
	if settings.MaxDelay < settings.BaseDelay {
		settings.MaxDelay = max(d.MaxDelay, settings.BaseDelay)
	}
	if settings.OutageThreshold <= 0 {
		settings.OutageThreshold = d.OutageThreshold
	}
	if settings.Burst <= 0 {
		settings.Burst = 1
	}
	return &AgentRunner{
		llm:        llm,
		contexts:   contexts,
		prompts:    prompts,
		settings:   settings,
		completion: completion,
	}
}

type task struct {
	index     int
	agent     domain.AgentProfile
	paragraph domain.Paragraph
}

// run holds the state shared by the tasks of one Run call.
type run struct {
	*AgentRunner

	dispatchCtx context.Context
	stop        context.CancelCauseFunc
	sem         *semaphore.Weighted
	limiter     *rate.Limiter

	consecutive atomic.Int64
	aborted     atomic.Bool
	calls       atomic.Int64

	mu      sync.Mutex
	results map[int]domain.ReviewFinding
	closed  bool
}

// Run reviews every paragraph with every agent. It never fails: pairs that
// could not be completed become failed findings and the outcome records why.
func (r *AgentRunner) Run(ctx context.Context, agents []domain.AgentProfile, paragraphs []domain.Paragraph) *RunOutcome {
	logger.Section("Review")
	s := r.settings
	logger.Debug("Pairs: %d agents x %d paragraphs, workers=%d in-flight=%d rps=%.2f",
		len(agents), len(paragraphs), s.Workers, s.MaxInFlight, s.RequestsPerSecond)

	tasks := make([]task, 0, len(agents)*len(paragraphs))
	for _, a := range agents {
		for _, p := range paragraphs {
			tasks = append(tasks, task{index: len(tasks), agent: a, paragraph: p})
		}
	}

	dispatchCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)
	if s.RunTimeout > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeoutCause(dispatchCtx, s.RunTimeout, errRunTimeout)
		defer cancel()
	}

	// In-flight work outlives dispatch by the grace period.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	st := &run{
		AgentRunner: r,
		dispatchCtx: dispatchCtx,
		stop:        stop,
		sem:         semaphore.NewWeighted(int64(s.MaxInFlight)),
		results:     make(map[int]domain.ReviewFinding, len(tasks)),
	}
	if s.RequestsPerSecond > 0 {
		st.limiter = rate.NewLimiter(rate.Limit(s.RequestsPerSecond), s.Burst)
	}

	finished := make(chan struct{})
	graceExpired := make(chan struct{})
	go func() {
		select {
		case <-finished:
			return
		case <-dispatchCtx.Done():
		}
		timer := time.NewTimer(s.GracePeriod)
		defer timer.Stop()
		select {
		case <-finished:
		case <-timer.C:
			logger.Warn("Grace period of %s expired, abandoning in-flight reviews", s.GracePeriod)
			cancelWork()
			close(graceExpired)
		}
	}()

	g := new(errgroup.Group)
	g.SetLimit(s.Workers)
	go func() {
		defer close(finished)
		for _, t := range tasks {
			if dispatchCtx.Err() != nil {
				break
			}
			g.Go(func() error {
				if dispatchCtx.Err() != nil {
					return nil
				}
				if f, ok := st.review(workCtx, t); ok {
					st.record(t.index, f)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-finished:
	case <-graceExpired:
	}

	st.mu.Lock()
	st.closed = true
	results := st.results
	st.mu.Unlock()

	out := &RunOutcome{LLMCalls: st.calls.Load()}
	incomplete := len(results) < len(tasks)
	switch {
	case st.aborted.Load():
		out.Aborted, out.AbortReason = true, domain.AbortBackendUnavailable
	case !incomplete:
	case ctx.Err() != nil:
		out.Cancelled, out.AbortReason = true, domain.AbortCancelled
	case errors.Is(context.Cause(dispatchCtx), errRunTimeout):
		out.TimedOut, out.AbortReason = true, domain.AbortTimeout
	}

	out.Findings = make([]domain.ReviewFinding, len(tasks))
	filled := 0
	for _, t := range tasks {
		if f, ok := results[t.index]; ok {
			out.Findings[t.index] = f
			continue
		}
		filled++
		out.Findings[t.index] = domain.FailedFinding(t.agent.Name, t.paragraph, fillKind(out), "review not completed: "+fillReason(out), 0)
	}
	if filled > 0 {
		logger.L().Warn("dispatch stopped, reviews not completed",
			zap.String("reason", out.AbortReason),
			zap.Int("unfinished", filled),
			zap.Int("total", len(tasks)))
	}
	return out
}

func fillKind(o *RunOutcome) domain.FailureKind {
	switch {
	case o.Aborted:
		return domain.FailureAborted
	case o.TimedOut:
		return domain.FailureTimeout
	case o.Cancelled:
		return domain.FailureCancelled
	default:
		return domain.FailureMissing
	}
}

func fillReason(o *RunOutcome) string {
	if o.AbortReason == "" {
		return "no result"
	}
	return o.AbortReason
}

func (st *run) record(index int, f domain.ReviewFinding) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	st.results[index] = f
}

// review runs one pair. It returns false when the pair was interrupted and
// the reduce step should decide its failure kind.
func (st *run) review(ctx context.Context, t task) (domain.ReviewFinding, bool) {
	agent, p := t.agent, t.paragraph

	rc, err := st.contexts.Build(ctx, agent, p)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ReviewFinding{}, false
		}
		logger.Debug("%s/%d: retrieval failed: %v", agent.Name, p.Ordinal, err)
		return domain.FailedFinding(agent.Name, p, domain.FailureRetrieval, err.Error(), 0), true
	}

	prompt, err := st.prompts.Build(agent, p, rc)
	if err != nil {
		return domain.FailedFinding(agent.Name, p, domain.FailureMalformedResponse, err.Error(), 0), true
	}
	opts := st.completion
	opts.System = prompt.System

	for attempt := 1; ; attempt++ {
		raw, err := st.complete(ctx, prompt.Task, opts)
		if err != nil && ctx.Err() != nil {
			return domain.ReviewFinding{}, false
		}

		if err == nil {
			st.consecutive.Store(0)
			parsed, perr := ParseReview(raw, agent.Rubric, p.Text)
			if perr != nil {
				logger.L().Debug("review failed, not retrying",
					zap.String("agent", agent.Name), zap.Int("ordinal", p.Ordinal),
					zap.Int("attempt", attempt), zap.Error(perr))
				return domain.FailedFinding(agent.Name, p, domain.FailureMalformedResponse, perr.Error(), attempt), true
			}
			if !parsed.OverallConsistent() {
				logger.L().Debug("reported overall replaced by mean",
					zap.String("agent", agent.Name), zap.Int("ordinal", p.Ordinal),
					zap.Float64("reported", parsed.ReportedOverall), zap.Float64("mean", parsed.OverallScore))
			}
			return domain.ReviewFinding{
				AgentName:     agent.Name,
				ParagraphID:   p.ID,
				Ordinal:       p.Ordinal,
				Scores:        parsed.Scores,
				OverallScore:  parsed.OverallScore,
				Confidence:    parsed.Confidence,
				Comment:       parsed.Comment,
				RewrittenText: parsed.RewrittenText,
				Status:        domain.FindingOK,
				Attempts:      attempt,
			}, true
		}

		if !domain.IsTransient(err) {
			logger.L().Debug("review failed, not retrying",
				zap.String("agent", agent.Name), zap.Int("ordinal", p.Ordinal),
				zap.Int("attempt", attempt), zap.Error(err))
			return domain.FailedFinding(agent.Name, p, domain.FailureMalformedResponse, err.Error(), attempt), true
		}

		if n := st.consecutive.Add(1); n >= int64(st.settings.OutageThreshold) && st.aborted.CompareAndSwap(false, true) {
			logger.L().Warn("LLM backend unavailable, stopping dispatch",
				zap.Int64("consecutive_failures", n),
				zap.String("agent", agent.Name), zap.Int("ordinal", p.Ordinal), zap.Error(err))
			st.stop(errOutage)
		}
		if attempt >= st.settings.MaxAttempts {
			return domain.FailedFinding(agent.Name, p, domain.FailureLLMUnavailable, err.Error(), attempt), true
		}
		if st.aborted.Load() {
			return domain.FailedFinding(agent.Name, p, domain.FailureAborted, err.Error(), attempt), true
		}

		delay := Backoff(attempt, st.settings.BaseDelay, st.settings.MaxDelay, domain.RetryAfter(err))
		logger.L().Debug("review attempt failed, retrying",
			zap.String("agent", agent.Name), zap.Int("ordinal", p.Ordinal),
			zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		if err := sleep(ctx, delay); err != nil {
			return domain.ReviewFinding{}, false
		}
	}
}

// complete gates one LLM call on the rate limiter and the in-flight cap.
func (st *run) complete(ctx context.Context, prompt string, opts driven.CompletionOptions) (string, error) {
	if st.limiter != nil {
		if err := st.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if err := st.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer st.sem.Release(1)

	st.calls.Add(1)
	return st.llm.Complete(ctx, prompt, opts)
}

// Backoff returns min(base*2^(attempt-1), maxDelay), raised to retryAfter.
func Backoff(attempt int, base, maxDelay, retryAfter time.Duration) time.Duration {
	delay := base
	for i := 1; i < attempt && delay < maxDelay; i++ {
		delay *= 2
	}
	delay = min(delay, maxDelay)
	return max(delay, retryAfter)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
