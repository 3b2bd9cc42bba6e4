// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"strings"

	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/semanticscholar"
	"github.com/pdiddy/citegraph/internal/stream"
	"github.com/pdiddy/citegraph/pkg/types"
)

// ProcessOpenAlexAuthor resolves a raw OpenAlex author reference to the
// canonical Author, creating it when unseen. OpenAlex identity is
// authoritative: an existing stub resolved here absorbs the canonical
// name and ORCID and leaves stub status behind.
func (s *State) ProcessOpenAlexAuthor(a openalex.Author) string {
	oaID := NormalizeOpenAlexID(a.ID)
	orcid := NormalizeORCID(a.ORCID)
	name := CleanName(a.DisplayName)
	if oaID == "" && orcid == "" && name == "" {
		return ""
	}

	uid, found := s.Find(NSOpenAlexAuthor, oaID)
	if !found {
		uid, found = s.Find(NSORCID, orcid)
	}

	if !found {
		uid = s.newUID("a")
		author := &types.Author{
			ShortUID:  uid,
			CleanName: name,
			ORCID:     orcid,
		}
		s.Authors[uid] = author
		s.notify.Emit(stream.Event{Type: stream.EventAuthorAdded, Author: cloneAuthor(author)})
	} else {
		author := s.Authors[uid]
		changed := false
		if name != "" && (author.CleanName == "" || author.IsStub) {
			author.CleanName = name
			changed = true
		}
		if author.ORCID == "" && orcid != "" {
			author.ORCID = orcid
			changed = true
		}
		if author.IsStub {
			author.IsStub = false
			changed = true
		}
		if changed {
			s.notify.Emit(stream.Event{Type: stream.EventEntityUpdated, Kind: "author", Author: cloneAuthor(author)})
		}
	}

	s.Record(NSOpenAlexAuthor, oaID, uid)
	s.Record(NSORCID, orcid, uid)
	return uid
}

// ProcessSemanticAuthor resolves a raw Semantic Scholar author reference.
// These carry only a plain name and a provider-local id, so new authors
// are created as stubs pending reconciliation.
func (s *State) ProcessSemanticAuthor(a semanticscholar.Author) string {
	name := CleanName(a.Name)
	if a.AuthorID == "" && name == "" {
		return ""
	}

	if uid, found := s.Find(NSS2Author, a.AuthorID); found {
		return uid
	}

	uid := s.newUID("a")
	author := &types.Author{
		ShortUID:  uid,
		CleanName: name,
		IsStub:    true,
	}
	s.Authors[uid] = author
	s.notify.Emit(stream.Event{Type: stream.EventAuthorAdded, Author: cloneAuthor(author)})

	s.Record(NSS2Author, a.AuthorID, uid)
	return uid
}

// ProcessInstitution resolves a raw OpenAlex institution reference to the
// canonical Institution, creating it when unseen. Resolution tries the
// provider-native id first, then ROR.
func (s *State) ProcessInstitution(inst openalex.Institution) string {
	oaID := NormalizeOpenAlexID(inst.ID)
	ror := NormalizeROR(inst.ROR)
	if oaID == "" && ror == "" {
		return ""
	}

	uid, found := s.Find(NSOpenAlexInstitution, oaID)
	if !found {
		uid, found = s.Find(NSROR, ror)
	}

	if !found {
		uid = s.newUID("i")
		institution := &types.Institution{
			ShortUID:    uid,
			RORID:       ror,
			DisplayName: inst.DisplayName,
			CountryCode: inst.CountryCode,
			Type:        inst.Type,
		}
		s.Institutions[uid] = institution
		cp := *institution
		s.notify.Emit(stream.Event{Type: stream.EventInstitutionAdded, Institution: &cp})
	} else {
		institution := s.Institutions[uid]
		changed := false
		if institution.RORID == "" && ror != "" {
			institution.RORID = ror
			changed = true
		}
		if institution.DisplayName == "" && inst.DisplayName != "" {
			institution.DisplayName = inst.DisplayName
			changed = true
		}
		if institution.CountryCode == "" && inst.CountryCode != "" {
			institution.CountryCode = inst.CountryCode
			changed = true
		}
		if institution.Type == "" && inst.Type != "" {
			institution.Type = inst.Type
			changed = true
		}
		if changed {
			cp := *institution
			s.notify.Emit(stream.Event{Type: stream.EventEntityUpdated, Kind: "institution", Institution: &cp})
		}
	}

	s.Record(NSOpenAlexInstitution, oaID, uid)
	s.Record(NSROR, ror, uid)
	return uid
}

// CleanName collapses interior whitespace and trims a display name.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func cloneAuthor(a *types.Author) *types.Author {
	cp := *a
	return &cp
}
