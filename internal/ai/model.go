package ai

import (
	_ "embed"

	"resume-builder/internal/shared/jsonschema"
)

// Operation names an enhancer; it is part of every cache key.
type Operation string

const (
	OpRewriteBullet   Operation = "rewrite_bullet"
	OpGenerateSummary Operation = "generate_summary"
	OpExtractKeywords Operation = "extract_keywords"
	OpJobMatch        Operation = "job_match"
)

type BulletRewrite struct {
	Suggestions []string `json:"suggestions"`
}

type Summary struct {
	Summary string `json:"summary"`
}

type Keyword struct {
	Term       string `json:"term"`
	Category   string `json:"category"`
	Importance string `json:"importance"`
}

type Keywords struct {
	Keywords []Keyword `json:"keywords"`
}

type JobMatch struct {
	Score          int      `json:"score"`
	Strengths      []string `json:"strengths"`
	Gaps           []string `json:"gaps"`
	Recommendation string   `json:"recommendation"`
}

// Outcome is an enhancer result and whether it was served from the cache.
type Outcome[T any] struct {
	Value  T
	Cached bool
}

var (
	//go:embed schemas/bullet_rewrite.schema.json
	bulletRewriteSchemaJSON []byte
	//go:embed schemas/summary.schema.json
	summarySchemaJSON []byte
	//go:embed schemas/keywords.schema.json
	keywordsSchemaJSON []byte
	//go:embed schemas/job_match.schema.json
	jobMatchSchemaJSON []byte

	bulletRewriteSchema = jsonschema.MustCompile("bullet rewrite", bulletRewriteSchemaJSON)
	summarySchema       = jsonschema.MustCompile("summary", summarySchemaJSON)
	keywordsSchema      = jsonschema.MustCompile("keywords", keywordsSchemaJSON)
	jobMatchSchema      = jsonschema.MustCompile("job match", jobMatchSchemaJSON)
)
