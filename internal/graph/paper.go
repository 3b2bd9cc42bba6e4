// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"strconv"
	"strings"

	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/semanticscholar"
	"github.com/pdiddy/citegraph/internal/stream"
	"github.com/pdiddy/citegraph/pkg/types"
)

// ProcessOpenAlexWork resolves a raw OpenAlex work to its canonical Paper,
// creating or enriching as needed, and returns the internal id.
//
// isStub signals the ingestion depth: a full call (isStub=false) clears
// stub status and fans out authorships; a discovery call establishes
// identity and merges whatever non-empty fields the record carries, but
// never promotes the paper out of stub status. Opportunistic enrichment is
// deliberate — a paper first seen as a thin co-citation stub may be fully
// described by an unrelated batch response before it is ever formally
// hydrated, and that data would otherwise have to be fetched again.
func (s *State) ProcessOpenAlexWork(w *openalex.Work, isStub bool) string {
	doi := NormalizeDOI(w.DOI)
	oaID := NormalizeOpenAlexID(w.ID)

	uid, found := s.Find(NSDOI, doi)
	if !found {
		uid, found = s.Find(NSOpenAlex, oaID)
	}

	if !found {
		uid = s.newUID("p")
		paper := paperFromOpenAlex(w)
		paper.ShortUID = uid
		paper.IsStub = isStub
		s.Papers[uid] = paper
		s.notify.Emit(stream.Event{Type: stream.EventPaperAdded, Paper: clonePaper(paper)})
	} else {
		s.mergeOpenAlexInto(uid, w, isStub)
	}

	// Register every external id on the record even on the merge path:
	// an earlier discovery call may have indexed only one of the two.
	s.Record(NSDOI, doi, uid)
	s.Record(NSOpenAlex, oaID, uid)

	if !isStub {
		s.attachOpenAlexAuthorships(uid, w.Authorships)
	}

	return uid
}

// mergeOpenAlexInto folds non-empty fields of the record into an existing
// paper. Fields are monotonic: populated values are never replaced with
// empty ones. Stub status clears only on a full call, but field merging
// also runs for a discovery record that carries a non-trivial title, so a
// stub can be enriched without being promoted.
func (s *State) mergeOpenAlexInto(uid string, w *openalex.Work, isStub bool) {
	paper := s.Papers[uid]
	promote := !isStub && paper.IsStub
	enrich := !isStub || strings.TrimSpace(w.BestTitle()) != ""
	if !promote && !enrich {
		return
	}

	changed := mergePaperFields(paper, paperFromOpenAlex(w))
	if promote {
		paper.IsStub = false
		changed = true
	}
	if changed {
		s.notify.Emit(stream.Event{
			Type:  stream.EventEntityUpdated,
			Kind:  "paper",
			Paper: clonePaper(paper),
		})
	}
}

// ProcessSemanticPaper resolves a raw Semantic Scholar paper to its
// canonical Paper. Resolution tries DOI first, then the provider-native
// paper id; unmatched records become new stubs. The record's author names
// are attached as stub authors so reconciliation can later fold them into
// canonical identities.
func (s *State) ProcessSemanticPaper(p *semanticscholar.Paper, isStub bool) string {
	doi := NormalizeDOI(p.ExternalIDs.DOI)

	uid, found := s.Find(NSDOI, doi)
	if !found {
		uid, found = s.Find(NSSemanticScholar, p.PaperID)
	}

	if !found {
		uid = s.newUID("p")
		paper := paperFromSemantic(p)
		paper.ShortUID = uid
		paper.IsStub = isStub
		s.Papers[uid] = paper
		s.notify.Emit(stream.Event{Type: stream.EventPaperAdded, Paper: clonePaper(paper)})
	} else {
		paper := s.Papers[uid]
		changed := mergePaperFields(paper, paperFromSemantic(p))
		if !isStub && paper.IsStub {
			paper.IsStub = false
			changed = true
		}
		if changed {
			s.notify.Emit(stream.Event{
				Type:  stream.EventEntityUpdated,
				Kind:  "paper",
				Paper: clonePaper(paper),
			})
		}
	}

	s.Record(NSDOI, doi, uid)
	s.Record(NSSemanticScholar, p.PaperID, uid)
	if p.ExternalIDs.CorpusID != 0 {
		s.Record(NSS2Corpus, corpusIDString(p.ExternalIDs.CorpusID), uid)
	}

	s.attachSemanticAuthorships(uid, p.Authors)

	return uid
}

// attachOpenAlexAuthorships resolves each author and institution on a full
// record and creates the (paper, author) join records. Existing joins are
// left untouched so duplicate ingestion of the same paper from two
// discovery paths stays idempotent.
func (s *State) attachOpenAlexAuthorships(paperUID string, authorships []openalex.Authorship) {
	for position, as := range authorships {
		authorUID := s.ProcessOpenAlexAuthor(as.Author)
		if authorUID == "" {
			continue
		}

		var instUIDs []string
		for _, inst := range as.Institutions {
			if instUID := s.ProcessInstitution(inst); instUID != "" {
				instUIDs = append(instUIDs, instUID)
			}
		}

		key := authorshipKey(paperUID, authorUID)
		if _, exists := s.Authorships[key]; exists {
			continue
		}
		join := &types.Authorship{
			PaperUID:        paperUID,
			AuthorUID:       authorUID,
			Position:        position,
			IsCorresponding: as.IsCorresponding,
			RawAuthorName:   as.RawAuthorName,
			InstitutionUIDs: instUIDs,
		}
		s.Authorships[key] = join
		s.notify.Emit(stream.Event{Type: stream.EventAuthorshipAdded, Authorship: cloneAuthorship(join)})
	}
}

// attachSemanticAuthorships creates stub authors and joins for a Semantic
// Scholar record's plain-name author list.
func (s *State) attachSemanticAuthorships(paperUID string, authors []semanticscholar.Author) {
	for position, a := range authors {
		authorUID := s.ProcessSemanticAuthor(a)
		if authorUID == "" {
			continue
		}

		key := authorshipKey(paperUID, authorUID)
		if _, exists := s.Authorships[key]; exists {
			continue
		}
		join := &types.Authorship{
			PaperUID:      paperUID,
			AuthorUID:     authorUID,
			Position:      position,
			RawAuthorName: a.Name,
		}
		s.Authorships[key] = join
		s.notify.Emit(stream.Event{Type: stream.EventAuthorshipAdded, Authorship: cloneAuthorship(join)})
	}
}

// paperFromOpenAlex maps the provider variant to canonical Paper fields.
func paperFromOpenAlex(w *openalex.Work) *types.Paper {
	paper := &types.Paper{
		Title:           w.BestTitle(),
		PublicationYear: w.PublicationYear,
		PublicationDate: w.PublicationDate,
		Abstract:        w.AbstractText(),
		FWCI:            w.FWCI,
		CitedByCount:    w.CitedByCount,
		Type:            w.Type,
		Language:        w.Language,
		OAStatus:        w.OpenAccess.OAStatus,
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		paper.Location = w.PrimaryLocation.Source.DisplayName
	}
	switch {
	case w.BestOALocation != nil && w.BestOALocation.PDFURL != "":
		paper.BestOAURL = w.BestOALocation.PDFURL
	case w.BestOALocation != nil && w.BestOALocation.LandingPageURL != "":
		paper.BestOAURL = w.BestOALocation.LandingPageURL
	case w.OpenAccess.OAURL != "":
		paper.BestOAURL = w.OpenAccess.OAURL
	}
	for _, kw := range w.Keywords {
		if kw.DisplayName != "" {
			paper.Keywords = append(paper.Keywords, kw.DisplayName)
		}
	}
	return paper
}

// paperFromSemantic maps the provider variant to canonical Paper fields.
func paperFromSemantic(p *semanticscholar.Paper) *types.Paper {
	return &types.Paper{
		Title:           p.Title,
		PublicationYear: p.Year,
	}
}

// mergePaperFields copies non-empty fields of src into dst, never
// overwriting populated data with weaker values. Returns whether anything
// changed.
func mergePaperFields(dst, src *types.Paper) bool {
	changed := false
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
		changed = true
	}
	if dst.PublicationYear == 0 && src.PublicationYear != 0 {
		dst.PublicationYear = src.PublicationYear
		changed = true
	}
	if dst.PublicationDate == "" && src.PublicationDate != "" {
		dst.PublicationDate = src.PublicationDate
		changed = true
	}
	if dst.Location == "" && src.Location != "" {
		dst.Location = src.Location
		changed = true
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
		changed = true
	}
	if dst.FWCI == 0 && src.FWCI != 0 {
		dst.FWCI = src.FWCI
		changed = true
	}
	if src.CitedByCount > dst.CitedByCount {
		// Citation counts only grow; the larger figure is the fresher one.
		dst.CitedByCount = src.CitedByCount
		changed = true
	}
	if dst.Type == "" && src.Type != "" {
		dst.Type = src.Type
		changed = true
	}
	if dst.Language == "" && src.Language != "" {
		dst.Language = src.Language
		changed = true
	}
	if len(dst.Keywords) == 0 && len(src.Keywords) > 0 {
		dst.Keywords = src.Keywords
		changed = true
	}
	if dst.BestOAURL == "" && src.BestOAURL != "" {
		dst.BestOAURL = src.BestOAURL
		changed = true
	}
	if dst.OAStatus == "" && src.OAStatus != "" {
		dst.OAStatus = src.OAStatus
		changed = true
	}
	return changed
}

func clonePaper(p *types.Paper) *types.Paper {
	cp := *p
	cp.Keywords = append([]string(nil), p.Keywords...)
	cp.RelationshipTags = make(map[string]bool, len(p.RelationshipTags))
	for tag := range p.RelationshipTags {
		cp.RelationshipTags[tag] = true
	}
	return &cp
}

func cloneAuthorship(as *types.Authorship) *types.Authorship {
	cp := *as
	cp.InstitutionUIDs = append([]string(nil), as.InstitutionUIDs...)
	return &cp
}

func corpusIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
