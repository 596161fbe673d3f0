package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-builder/internal/content"
	"resume-builder/internal/documents"
	"resume-builder/internal/llm"
	"resume-builder/internal/quota"
	"resume-builder/internal/scoring"
	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/jsonschema"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/shared/util"
)

const DefaultCacheTTL = 24 * time.Hour

// DocumentReader loads documents scoped to their owner.
type DocumentReader interface {
	Get(ctx context.Context, userID, id string) (documents.Document, error)
}

// Service runs the enhancers: quota check, cache lookup, model call, schema check,
// cache fill and a detached quota increment.
type Service struct {
	LLM       llm.Client
	Cache     Cache
	Quota     *quota.Service
	Docs      DocumentReader
	TTL       time.Duration
	CostPer1K float64
	Now       func() time.Time
	// Go runs fire-and-forget side effects.
	Go func(func())
}

func NewService(client llm.Client, cache Cache, quotaSvc *quota.Service, docs DocumentReader) *Service {
	return &Service{
		LLM:   client,
		Cache: cache,
		Quota: quotaSvc,
		Docs:  docs,
		TTL:   DefaultCacheTTL,
		Now:   func() time.Time { return time.Now().UTC() },
		Go:    func(f func()) { go f() },
	}
}

// Caller identifies who is spending quota.
type Caller struct {
	UserID string
	Plan   string
}

type RewriteBulletInput struct {
	Bullet         string
	Position       string
	Company        string
	JobDescription string
}

func (s *Service) RewriteBullet(ctx context.Context, caller Caller, in RewriteBulletInput) (Outcome[BulletRewrite], error) {
	in.Bullet = strings.TrimSpace(in.Bullet)
	if in.Bullet == "" {
		return Outcome[BulletRewrite]{}, apperr.Validation("bullet is required", apperr.FieldError{Field: "bullet", Issue: "required"})
	}
	in.JobDescription = scoring.JobDescriptionText(in.JobDescription)
	prompt, err := renderPrompt("bullet_rewrite", in)
	if err != nil {
		return Outcome[BulletRewrite]{}, err
	}
	return run[BulletRewrite](ctx, s, job{
		caller: caller,
		op:     OpRewriteBullet,
		input:  in.Bullet,
		extra:  []string{in.Position, in.Company, in.JobDescription},
		prompt: prompt,
		schema: bulletRewriteSchema,
		raw:    bulletRewriteSchemaJSON,
	})
}

func (s *Service) GenerateSummary(ctx context.Context, caller Caller, documentID, jobDescription string) (Outcome[Summary], error) {
	text, err := s.resumeText(ctx, caller.UserID, documentID)
	if err != nil {
		return Outcome[Summary]{}, err
	}
	jd := scoring.JobDescriptionText(jobDescription)
	prompt, err := renderPrompt("summary", map[string]string{"Resume": text, "JobDescription": jd})
	if err != nil {
		return Outcome[Summary]{}, err
	}
	return run[Summary](ctx, s, job{
		caller: caller,
		op:     OpGenerateSummary,
		input:  text,
		extra:  []string{jd},
		prompt: prompt,
		schema: summarySchema,
		text:   true,
	})
}

func (s *Service) ExtractKeywords(ctx context.Context, caller Caller, jobDescription string) (Outcome[Keywords], error) {
	jd, err := requireJobDescription(jobDescription)
	if err != nil {
		return Outcome[Keywords]{}, err
	}
	prompt, err := renderPrompt("keywords", map[string]string{"JobDescription": jd})
	if err != nil {
		return Outcome[Keywords]{}, err
	}
	return run[Keywords](ctx, s, job{
		caller: caller,
		op:     OpExtractKeywords,
		input:  jd,
		prompt: prompt,
		schema: keywordsSchema,
		raw:    keywordsSchemaJSON,
	})
}

func (s *Service) JobMatch(ctx context.Context, caller Caller, documentID, jobDescription string) (Outcome[JobMatch], error) {
	jd, err := requireJobDescription(jobDescription)
	if err != nil {
		return Outcome[JobMatch]{}, err
	}
	text, err := s.resumeText(ctx, caller.UserID, documentID)
	if err != nil {
		return Outcome[JobMatch]{}, err
	}
	prompt, err := renderPrompt("job_match", map[string]string{"Resume": text, "JobDescription": jd})
	if err != nil {
		return Outcome[JobMatch]{}, err
	}
	return run[JobMatch](ctx, s, job{
		caller: caller,
		op:     OpJobMatch,
		input:  text,
		extra:  []string{jd},
		prompt: prompt,
		schema: jobMatchSchema,
		raw:    jobMatchSchemaJSON,
	})
}

type job struct {
	caller Caller
	op     Operation
	input  string
	extra  []string
	prompt string
	schema *jsonschema.Schema
	raw    json.RawMessage
	// text asks for free-form text, which is wrapped as {"summary": ...} before validation.
	text bool
}

func (j job) cacheKey() string {
	parts := append([]string{string(j.op), j.input}, j.extra...)
	return util.ContentHash(parts...)
}

func run[T any](ctx context.Context, s *Service, j job) (Outcome[T], error) {
	var out Outcome[T]
	if _, err := s.Quota.Enforce(ctx, j.caller.UserID, j.caller.Plan); err != nil {
		return out, err
	}

	key := j.cacheKey()
	cached, hit, err := s.Cache.Get(ctx, key, s.Now())
	if err != nil {
		telemetry.Warn("ai.cache_lookup_failed", map[string]any{"operation": string(j.op), "error": err.Error()})
	}
	if hit {
		if err := json.Unmarshal(cached, &out.Value); err == nil {
			metrics.IncAICache(true)
			out.Cached = true
			return out, nil
		}
	}
	metrics.IncAICache(false)

	req := llm.Request{Operation: string(j.op), System: systemPrompt, Prompt: j.prompt, Schema: j.raw}
	start := time.Now()
	var res llm.Result
	if j.text {
		res, err = s.LLM.GenerateText(ctx, req)
	} else {
		res, err = s.LLM.GenerateObject(ctx, req)
	}
	metrics.ObserveAICallMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return out, err
		}
		return out, apperr.Internal(fmt.Errorf("ai %s: %w", j.op, err))
	}

	body := []byte(res.Text)
	if j.text {
		body, err = json.Marshal(Summary{Summary: strings.TrimSpace(res.Text)})
		if err != nil {
			return out, apperr.Internal(err)
		}
	}
	if err := j.schema.Validate("result", body); err != nil {
		return out, apperr.Internal(fmt.Errorf("ai %s: model output rejected: %w", j.op, err))
	}
	if err := json.Unmarshal(body, &out.Value); err != nil {
		return out, apperr.Internal(fmt.Errorf("ai %s: decode output: %w", j.op, err))
	}

	now := s.Now()
	canonical, err := json.Marshal(out.Value)
	if err == nil {
		err = s.Cache.Put(ctx, key, j.op, canonical, now, now.Add(s.TTL))
	}
	if err != nil {
		telemetry.Warn("ai.cache_store_failed", map[string]any{"operation": string(j.op), "error": err.Error()})
	}

	s.recordUsage(ctx, j, res.Usage)
	return out, nil
}

// recordUsage increments the quota without blocking or failing the request.
func (s *Service) recordUsage(ctx context.Context, j job, usage llm.Usage) {
	ctx = context.WithoutCancel(ctx)
	tokens := int64(usage.TotalTokens)
	cost := float64(tokens) / 1000 * s.CostPer1K
	s.Go(func() {
		if _, err := s.Quota.Increment(ctx, j.caller.UserID, tokens, cost); err != nil {
			telemetry.Error("ai.quota_increment_failed", map[string]any{
				"user_id":   j.caller.UserID,
				"operation": string(j.op),
				"error":     err.Error(),
			})
		}
	})
}

func (s *Service) resumeText(ctx context.Context, userID, documentID string) (string, error) {
	doc, err := s.Docs.Get(ctx, userID, documentID)
	if err != nil {
		return "", err
	}
	if doc.Kind != content.KindResume {
		return "", apperr.Validation("document is not a résumé", apperr.FieldError{Field: "documentId", Issue: "document is a " + string(doc.Kind)})
	}
	return resumeText(content.DecodeResume(doc.Content)), nil
}

func requireJobDescription(raw string) (string, error) {
	jd := scoring.JobDescriptionText(raw)
	if jd == "" {
		return "", apperr.Validation("jobDescription is required", apperr.FieldError{Field: "jobDescription", Issue: "required"})
	}
	return jd, nil
}
