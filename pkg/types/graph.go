// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citegraph engine:
// the canonical entity set (Paper, Author, Institution, Authorship), the
// relationship edges between papers, and the per-stage configuration.
//
// See docs/ARCHITECTURE § Data Structures.
package types

// RelationshipType classifies a directed edge between two papers.
type RelationshipType string

const (
	// RelCites means the source paper cites the target paper.
	RelCites RelationshipType = "cites"

	// RelSimilar links the master paper to a related work surfaced by a
	// provider's "related works" listing.
	RelSimilar RelationshipType = "similar"
)

// Relationship tags record how a paper was discovered relative to the
// master paper.
const (
	TagFirstDegree          = "1st_degree"
	TagSecondDegree         = "2nd_degree"
	TagReferencedByFirstDeg = "referenced_by_1st_degree"
	TagSimilar              = "similar"
)

// Paper is the canonical merged record for a single work. Fields are filled
// opportunistically from either provider and are monotonic: a populated
// field is never replaced with an empty value by later ingestion.
type Paper struct {
	// ShortUID is the opaque internal identifier minted on first sight.
	ShortUID string `json:"short_uid" yaml:"short_uid"`

	// Title is the work's display title.
	Title string `json:"title" yaml:"title"`

	// PublicationYear is the publication year, 0 when unknown.
	PublicationYear int `json:"publication_year" yaml:"publication_year"`

	// PublicationDate is the full publication date in YYYY-MM-DD form.
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	// Location is the venue (journal or conference) display name.
	Location string `json:"location" yaml:"location"`

	// Abstract is the plain-text abstract. OpenAlex supplies it as a
	// word→positions inverted index which the adapter reconstructs.
	Abstract string `json:"abstract" yaml:"abstract"`

	// FWCI is the field-weighted citation impact score.
	FWCI float64 `json:"fwci" yaml:"fwci"`

	// CitedByCount is the provider-reported citation count.
	CitedByCount int `json:"cited_by_count" yaml:"cited_by_count"`

	// Type is the work type (e.g. "article", "preprint").
	Type string `json:"type" yaml:"type"`

	// Language is the ISO language code.
	Language string `json:"language" yaml:"language"`

	// Keywords lists topic keywords in provider order.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// BestOAURL is the best open-access URL, when one exists.
	BestOAURL string `json:"best_oa_url" yaml:"best_oa_url"`

	// OAStatus is the open-access status (e.g. "gold", "green", "closed").
	OAStatus string `json:"oa_status" yaml:"oa_status"`

	// IsStub is true until a full-fidelity record has been ingested.
	// A non-stub paper never regresses to stub.
	IsStub bool `json:"is_stub" yaml:"is_stub"`

	// RelationshipTags holds discovery provenance tags relative to the
	// master paper (1st_degree, 2nd_degree, referenced_by_1st_degree,
	// similar).
	RelationshipTags map[string]bool `json:"relationship_tags" yaml:"relationship_tags"`
}

// HasTag reports whether the paper carries the given provenance tag.
func (p *Paper) HasTag(tag string) bool {
	return p.RelationshipTags[tag]
}

// AddTag records a provenance tag on the paper.
func (p *Paper) AddTag(tag string) {
	if p.RelationshipTags == nil {
		p.RelationshipTags = make(map[string]bool)
	}
	p.RelationshipTags[tag] = true
}

// Author is the canonical record for a paper author. At most one Author
// exists per distinct OpenAlex author id or ORCID.
type Author struct {
	// ShortUID is the opaque internal identifier.
	ShortUID string `json:"short_uid" yaml:"short_uid"`

	// CleanName is the normalized display name.
	CleanName string `json:"clean_name" yaml:"clean_name"`

	// ORCID is the bare ORCID identifier, empty when unknown.
	ORCID string `json:"orcid,omitempty" yaml:"orcid,omitempty"`

	// IsStub is true for authors known only by name (Semantic Scholar
	// discovery) until reconciliation or full ingestion resolves them.
	IsStub bool `json:"is_stub" yaml:"is_stub"`
}

// Institution is the canonical record for an author affiliation.
type Institution struct {
	// ShortUID is the opaque internal identifier.
	ShortUID string `json:"short_uid" yaml:"short_uid"`

	// RORID is the bare ROR identifier, empty when unknown.
	RORID string `json:"ror_id,omitempty" yaml:"ror_id,omitempty"`

	// DisplayName is the institution name.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// CountryCode is the ISO country code.
	CountryCode string `json:"country_code" yaml:"country_code"`

	// Type is the institution type (e.g. "education", "company").
	Type string `json:"type" yaml:"type"`
}

// Authorship joins a paper to one of its authors, keyed by the
// (paper, author) pair. Re-created idempotently when the same paper is
// ingested again.
type Authorship struct {
	// PaperUID is the paper's internal id.
	PaperUID string `json:"paper_short_uid" yaml:"paper_short_uid"`

	// AuthorUID is the author's internal id.
	AuthorUID string `json:"author_short_uid" yaml:"author_short_uid"`

	// Position is the author's integer rank on the paper (0-based).
	Position int `json:"author_position" yaml:"author_position"`

	// IsCorresponding marks the corresponding author.
	IsCorresponding bool `json:"is_corresponding" yaml:"is_corresponding"`

	// RawAuthorName is the name exactly as the provider returned it.
	RawAuthorName string `json:"raw_author_name" yaml:"raw_author_name"`

	// InstitutionUIDs lists affiliated institution ids in provider order.
	InstitutionUIDs []string `json:"institution_uids,omitempty" yaml:"institution_uids,omitempty"`
}

// Relationship is a directed, deduplicated edge between two papers.
// Uniqueness is enforced on the (source, type, target) triple.
type Relationship struct {
	// SourceUID is the citing (or master, for similar) paper's id.
	SourceUID string `json:"source_short_uid" yaml:"source_short_uid"`

	// TargetUID is the cited (or related) paper's id.
	TargetUID string `json:"target_short_uid" yaml:"target_short_uid"`

	// Type is the edge type: cites or similar.
	Type RelationshipType `json:"relationship_type" yaml:"relationship_type"`

	// Tag optionally records the discovery phase that produced the edge.
	Tag string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// Key returns the composite dedup key for the edge.
func (r Relationship) Key() string {
	return r.SourceUID + "|" + string(r.Type) + "|" + r.TargetUID
}
