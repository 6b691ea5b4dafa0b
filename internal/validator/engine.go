// Package validator composes the check modules, the TTL cache and the
// scoring policy into one per-email verdict.
package validator

import (
	"context"
	"fmt"

	"github.com/ignite/mailcheck/internal/cache"
	"github.com/ignite/mailcheck/internal/checks"
	"github.com/ignite/mailcheck/internal/pkg/logger"
)

// SyntaxPenalty is the fixed deduction for an unparseable address.
const SyntaxPenalty = 50

// MinValidScore is the score floor for an address to be considered valid.
const MinValidScore = 70

// Result is the complete verdict for one address. Created fresh per
// validation call and never mutated after being handed to the caller.
type Result struct {
	Email       string                   `json:"email"`
	IsValid     bool                     `json:"is_valid"`
	Score       int                      `json:"score"`
	Issues      []string                 `json:"issues"`
	Checks      map[string]checks.Result `json:"checks"`
	Suggestions []string                 `json:"suggestions"`
}

// Engine runs the validation pipeline. Checks execute in a fixed order
// so score penalties are deterministic for identical inputs.
type Engine struct {
	store cache.Store

	syntax   *checks.SyntaxCheck
	pipeline []pipelineStep
}

// pipelineStep binds a check module to its pipeline position: whether
// the options enable it, how to obtain its result, and the worst-case
// penalty applied when the module itself blows up.
type pipelineStep struct {
	name             string
	enabled          func(Options) bool
	run              func(ctx context.Context, e *Engine, addr checks.Address, opts Options) checks.Result
	worstCasePenalty int
}

// Deps carries the collaborators the engine composes. Store may be nil
// to disable caching entirely.
type Deps struct {
	Store      cache.Store
	Domain     *checks.DomainCheck
	Reputation *checks.ReputationCheck
	Spam       *checks.SpamCheck
	Disposable *checks.DisposableCheck
	SMTP       *checks.SMTPCheck
	Typo       *checks.TypoCheck
}

// NewEngine builds the engine with its static check table. The order
// here is the execution order: domain facts first (they are cached per
// domain and cheap on re-validation), then reputation, then the local
// heuristics, then the expensive SMTP probe, then the advisory checks.
func NewEngine(deps Deps) *Engine {
	e := &Engine{
		store:  deps.Store,
		syntax: checks.NewSyntaxCheck(),
	}

	e.pipeline = []pipelineStep{
		{
			name:    "domain",
			enabled: func(o Options) bool { return o.CheckDomain },
			run: func(ctx context.Context, e *Engine, addr checks.Address, _ Options) checks.Result {
				return e.cachedDomainCheck(ctx, cache.MXKey(addr.Domain), "mx", addr, deps.Domain)
			},
			worstCasePenalty: checks.DomainPenalty,
		},
		{
			name:    "reputation",
			enabled: func(o Options) bool { return o.CheckReputation },
			run: func(ctx context.Context, e *Engine, addr checks.Address, _ Options) checks.Result {
				return e.cachedDomainCheck(ctx, cache.ReputationKey(addr.Domain), "reputation", addr, deps.Reputation)
			},
			worstCasePenalty: checks.ReputationPenalty,
		},
		{
			name:             "spam",
			enabled:          func(o Options) bool { return o.CheckSpam },
			run:              runDirect(deps.Spam),
			worstCasePenalty: 10,
		},
		{
			name:             "disposable",
			enabled:          func(o Options) bool { return o.CheckDisposable },
			run:              runDirect(deps.Disposable),
			worstCasePenalty: checks.DisposablePenalty,
		},
		{
			name:             "smtp",
			enabled:          func(o Options) bool { return o.CheckSMTP },
			run:              runDirect(deps.SMTP),
			worstCasePenalty: checks.SMTPPenalty,
		},
		{
			name:    "duplicate",
			enabled: func(o Options) bool { return o.CheckDuplicates },
			run: func(ctx context.Context, _ *Engine, addr checks.Address, opts Options) checks.Result {
				return checks.NewDuplicateCheck(opts.Session).Run(ctx, addr)
			},
			worstCasePenalty: checks.DuplicatePenalty,
		},
		{
			name:             "typo",
			enabled:          func(o Options) bool { return o.CheckTypos },
			run:              runDirect(deps.Typo),
			worstCasePenalty: checks.TypoPenalty,
		},
	}

	return e
}

func runDirect(c checks.Check) func(ctx context.Context, e *Engine, addr checks.Address, opts Options) checks.Result {
	return func(ctx context.Context, _ *Engine, addr checks.Address, _ Options) checks.Result {
		return c.Run(ctx, addr)
	}
}

// Validate runs the full pipeline for one address. It never returns an
// error and never panics past its boundary — internal failures surface
// as issues with reduced scores. A live cached verdict for the same
// email and option set is returned verbatim; concurrent misses for one
// key run the pipeline once.
func (e *Engine) Validate(ctx context.Context, email string, opts *Options) Result {
	options := AllEnabled()
	if opts != nil {
		options = *opts
	}

	if e.store == nil {
		return e.runPipeline(ctx, email, options)
	}

	key := cache.ValidationKey(email, options.flags())
	v, err := e.store.GetOrCompute(ctx, key, "validation", func() (interface{}, error) {
		return e.runPipeline(ctx, email, options), nil
	})
	if err == nil {
		if r, ok := cache.As[Result](v); ok {
			return r
		}
	}
	// Cache layer misbehaving is not a reason to fail the call.
	return e.runPipeline(ctx, email, options)
}

func (e *Engine) runPipeline(ctx context.Context, email string, opts Options) Result {
	result := Result{
		Email:  email,
		Score:  100,
		Issues: []string{},
		Checks: make(map[string]checks.Result),
	}

	// Syntax runs unconditionally: every later module assumes a
	// parseable local/domain split. A failure short-circuits the rest.
	addr, parseable := checks.ParseAddress(email)
	syntaxResult := e.syntax.Run(ctx, addr)
	if !parseable && syntaxResult.Kind == checks.KindNone {
		syntaxResult = checks.Result{
			Valid:  falsePtr(),
			Issues: []string{"email format is invalid"},
			Kind:   checks.KindFormat,
		}
	}
	result.Checks["syntax"] = syntaxResult
	if syntaxResult.Valid != nil && !*syntaxResult.Valid {
		result.Issues = append(result.Issues, syntaxResult.Issues...)
		result.Score -= SyntaxPenalty
		return e.finalize(result)
	}

	for _, step := range e.pipeline {
		if !step.enabled(opts) {
			continue
		}

		checkResult := e.runSafe(ctx, step, addr, opts)
		result.Checks[step.name] = checkResult
		result.Issues = append(result.Issues, checkResult.Issues...)
		result.Suggestions = append(result.Suggestions, checkResult.Suggestions...)
		result.Score -= stepPenalty(step, checkResult)
	}

	return e.finalize(result)
}

// stepPenalty resolves the deduction for one completed check: the
// module's own penalty when it reports one, the fixed category penalty
// when it made a hard validity claim against the address.
func stepPenalty(step pipelineStep, r checks.Result) int {
	if r.Penalty > 0 {
		return r.Penalty
	}
	if r.Valid != nil && !*r.Valid {
		return step.worstCasePenalty
	}
	return 0
}

// runSafe invokes a module and converts a panic into a degraded result
// with the category's worst-case penalty. One module's failure never
// aborts the pipeline.
func (e *Engine) runSafe(ctx context.Context, step pipelineStep, addr checks.Address, opts Options) (result checks.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("check module panicked",
				"check", step.name,
				"email", addr.Normalized,
				"panic", fmt.Sprintf("%v", r))
			result = checks.Result{
				Issues:  []string{fmt.Sprintf("%s check failed internally", step.name)},
				Penalty: step.worstCasePenalty,
				Kind:    checks.KindLookup,
			}
		}
	}()
	return step.run(ctx, e, addr, opts)
}

// cachedDomainCheck consults the domain-keyed sub-cache before invoking
// network code. Domain facts change far less often than full validation
// outcomes, so they get their own longer-TTL entries shared across every
// address on the domain.
func (e *Engine) cachedDomainCheck(ctx context.Context, key, category string, addr checks.Address, check checks.Check) checks.Result {
	if e.store == nil {
		return check.Run(ctx, addr)
	}

	v, err := e.store.GetOrCompute(ctx, key, category, func() (interface{}, error) {
		return check.Run(ctx, addr), nil
	})
	if err == nil {
		if r, ok := cache.As[checks.Result](v); ok {
			return r
		}
	}
	return check.Run(ctx, addr)
}

// finalize clamps the score and applies the validity rule: score at or
// above the floor, and no module made a hard failure claim.
func (e *Engine) finalize(result Result) Result {
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}

	hardFailure := false
	for _, check := range result.Checks {
		if check.Valid != nil && !*check.Valid {
			hardFailure = true
			break
		}
	}
	result.IsValid = result.Score >= MinValidScore && !hardFailure

	return result
}

func falsePtr() *bool {
	f := false
	return &f
}
