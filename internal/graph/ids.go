// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph holds the in-memory citation graph for one analysis
// session: the canonical entity maps, the external-identifier index that
// makes cross-provider deduplication possible, and the entity processors
// that resolve raw provider records into canonical entities.
//
// See docs/ARCHITECTURE § Graph Assembly.
package graph

import "strings"

// Namespace identifies the origin of an external identifier. Every
// external id is stored in the index under exactly one namespace.
type Namespace string

const (
	NSOpenAlex            Namespace = "openalex"
	NSDOI                 Namespace = "doi"
	NSSemanticScholar     Namespace = "s2"
	NSS2Corpus            Namespace = "s2corpus"
	NSOpenAlexAuthor      Namespace = "openalex_author"
	NSORCID               Namespace = "orcid"
	NSOpenAlexInstitution Namespace = "openalex_institution"
	NSROR                 Namespace = "ror"
	NSS2Author            Namespace = "s2_author"
)

// NormalizeDOI lowercases a DOI and strips any resolver URL prefix so
// "https://doi.org/10.1/X" and "10.1/x" index identically. Only bare DOIs
// are ever persisted in the index.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}

// NormalizeOpenAlexID strips the https://openalex.org/ prefix, leaving the
// bare token (e.g. "W2741809807", "A5023888391", "I27837315").
func NormalizeOpenAlexID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "https://openalex.org/")
	id = strings.TrimPrefix(id, "http://openalex.org/")
	return id
}

// NormalizeORCID strips the https://orcid.org/ prefix, leaving the bare
// 0000-0000-0000-0000 token.
func NormalizeORCID(orcid string) string {
	orcid = strings.TrimSpace(orcid)
	orcid = strings.TrimPrefix(orcid, "https://orcid.org/")
	orcid = strings.TrimPrefix(orcid, "http://orcid.org/")
	return orcid
}

// NormalizeROR strips the https://ror.org/ prefix, leaving the bare token.
func NormalizeROR(ror string) string {
	ror = strings.TrimSpace(ror)
	ror = strings.TrimPrefix(ror, "https://ror.org/")
	ror = strings.TrimPrefix(ror, "http://ror.org/")
	return ror
}
