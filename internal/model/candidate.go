// Package model holds the data types shared across the identity-resolution
// engine: the LinkedIn candidate seed, extracted hints, planned queries,
// resolved platform identities, bridge detections, and the durable
// enrichment session and run trace that wrap a single resolution.
package model

import "time"

// RoleType narrows query planning and tech-keyword extraction (spec.md §4.2).
type RoleType string

const (
	RoleEngineer      RoleType = "engineer"
	RoleDataScientist RoleType = "data_scientist"
	RoleResearcher    RoleType = "researcher"
	RoleFounder       RoleType = "founder"
	RoleDesigner      RoleType = "designer"
	RoleGeneral       RoleType = "general"
)

// EnrichmentStatus tracks a candidate's lifecycle as advanced by the worker.
type EnrichmentStatus string

const (
	EnrichmentNone       EnrichmentStatus = "none"
	EnrichmentInProgress EnrichmentStatus = "in_progress"
	EnrichmentCompleted  EnrichmentStatus = "completed"
	EnrichmentFailed     EnrichmentStatus = "failed"
)

// Candidate is the immutable input anchor: a LinkedIn SERP seed plus
// whatever public search-engine metadata pointed to it. It is created by
// ingestion outside the engine and mutated only by the worker to advance
// status and timestamps.
type Candidate struct {
	TenantID         string           `json:"tenant_id"`
	CandidateID      string           `json:"candidate_id"`
	LinkedInSlug     string           `json:"linkedin_slug"`
	LinkedInURL      string           `json:"linkedin_url"`
	SERPTitle        string           `json:"serp_title"`
	SERPSnippet      string           `json:"serp_snippet"`
	SERPMetadata     SERPMetadata     `json:"serp_metadata"`
	RoleType         RoleType         `json:"role_type,omitempty"`
	EnrichmentStatus EnrichmentStatus `json:"enrichment_status"`
	LastEnrichedAt   *time.Time       `json:"last_enriched_at,omitempty"`
}

// SERPMetadata holds the optional structured knowledge-graph/answer-box
// blob and locale hints a search engine attaches to a result.
type SERPMetadata struct {
	KnowledgeGraphName     string `json:"kg_name,omitempty"`
	KnowledgeGraphHeadline string `json:"kg_headline,omitempty"`
	AnswerBoxText          string `json:"answer_box_text,omitempty"`
	LocaleCountryCode      string `json:"locale_country_code,omitempty"`
}
