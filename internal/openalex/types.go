// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"sort"
	"strings"
)

// OpenAlex API JSON structures. Only the fields the engine consumes are
// declared; the select= parameter keeps responses close to this shape.

type listResponse struct {
	Meta    meta   `json:"meta"`
	Results []Work `json:"results"`
}

type meta struct {
	Count      int    `json:"count"`
	PerPage    int    `json:"per_page"`
	NextCursor string `json:"next_cursor"`
}

// Work is a raw OpenAlex work record.
type Work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	PublicationDate       string           `json:"publication_date"`
	Language              string           `json:"language"`
	Type                  string           `json:"type"`
	FWCI                  float64          `json:"fwci"`
	CitedByCount          int              `json:"cited_by_count"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	PrimaryLocation       *Location        `json:"primary_location"`
	OpenAccess            OpenAccess       `json:"open_access"`
	BestOALocation        *OALocation      `json:"best_oa_location"`
	Keywords              []Keyword        `json:"keywords"`
	Authorships           []Authorship     `json:"authorships"`
	ReferencedWorks       []string         `json:"referenced_works"`
	RelatedWorks          []string         `json:"related_works"`
}

// BestTitle returns the title, falling back to display_name; some record
// types populate only one of the two.
func (w *Work) BestTitle() string {
	if w.Title != "" {
		return w.Title
	}
	return w.DisplayName
}

// AbstractText reconstructs the plain-text abstract from the
// word→positions inverted index OpenAlex returns in place of prose.
func (w *Work) AbstractText() string {
	if len(w.AbstractInvertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range w.AbstractInvertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// Location is a hosting venue for a work.
type Location struct {
	Source *Source `json:"source"`
}

// Source is the venue (journal, conference, repository) of a location.
type Source struct {
	DisplayName string `json:"display_name"`
}

// OpenAccess summarizes a work's open-access standing.
type OpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

// OALocation is the best open-access copy of a work.
type OALocation struct {
	PDFURL         string `json:"pdf_url"`
	LandingPageURL string `json:"landing_page_url"`
}

// Keyword is a topic keyword attached to a work.
type Keyword struct {
	DisplayName string `json:"display_name"`
}

// Authorship links a work to one author with affiliation context.
type Authorship struct {
	AuthorPosition  string        `json:"author_position"`
	IsCorresponding bool          `json:"is_corresponding"`
	RawAuthorName   string        `json:"raw_author_name"`
	Author          Author        `json:"author"`
	Institutions    []Institution `json:"institutions"`
}

// Author is a raw OpenAlex author reference.
type Author struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
}

// Institution is a raw OpenAlex institution reference.
type Institution struct {
	ID          string `json:"id"`
	ROR         string `json:"ror"`
	DisplayName string `json:"display_name"`
	CountryCode string `json:"country_code"`
	Type        string `json:"type"`
}
