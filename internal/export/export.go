// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes a frozen graph snapshot to normalized sqlite
// tables. The engine's only obligation to this layer is a consistent
// point-in-time snapshot; the tables mirror the entity set one-to-one so
// downstream tooling can reconstruct the session without the engine.
package export

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citegraph/internal/graph"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS papers (
		short_uid TEXT PRIMARY KEY,
		title TEXT,
		publication_year INTEGER,
		publication_date TEXT,
		location TEXT,
		abstract TEXT,
		fwci REAL,
		cited_by_count INTEGER,
		type TEXT,
		language TEXT,
		best_oa_url TEXT,
		oa_status TEXT,
		is_stub INTEGER NOT NULL,
		is_master INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authors (
		short_uid TEXT PRIMARY KEY,
		clean_name TEXT,
		orcid TEXT,
		is_stub INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS institutions (
		short_uid TEXT PRIMARY KEY,
		ror_id TEXT,
		display_name TEXT,
		country_code TEXT,
		type TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS authorships (
		paper_short_uid TEXT NOT NULL,
		author_short_uid TEXT NOT NULL,
		author_position INTEGER,
		is_corresponding INTEGER,
		raw_author_name TEXT,
		PRIMARY KEY (paper_short_uid, author_short_uid)
	)`,
	`CREATE TABLE IF NOT EXISTS authorship_institutions (
		paper_short_uid TEXT NOT NULL,
		author_short_uid TEXT NOT NULL,
		institution_short_uid TEXT NOT NULL,
		position INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS relationships (
		source_short_uid TEXT NOT NULL,
		relationship_type TEXT NOT NULL,
		target_short_uid TEXT NOT NULL,
		tag TEXT,
		PRIMARY KEY (source_short_uid, relationship_type, target_short_uid)
	)`,
	`CREATE TABLE IF NOT EXISTS relationship_tags (
		paper_short_uid TEXT NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (paper_short_uid, tag)
	)`,
	`CREATE TABLE IF NOT EXISTS keywords (
		paper_short_uid TEXT NOT NULL,
		position INTEGER NOT NULL,
		keyword TEXT NOT NULL,
		PRIMARY KEY (paper_short_uid, position)
	)`,
	`CREATE TABLE IF NOT EXISTS external_ids (
		namespace TEXT NOT NULL,
		value TEXT NOT NULL,
		short_uid TEXT NOT NULL,
		PRIMARY KEY (namespace, value)
	)`,
}

// tables in wipe order for repeated exports to the same file.
var tables = []string{
	"papers", "authors", "institutions", "authorships",
	"authorship_institutions", "relationships", "relationship_tags",
	"keywords", "external_ids",
}

// Write exports a snapshot to the sqlite database at path, replacing any
// previous export in the same file. Everything is written in a single
// transaction.
func Write(ctx context.Context, snap *graph.Snapshot, path string) error {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("opening export database: %w", err)
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating export schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning export transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := writeEntities(ctx, tx, snap); err != nil {
		return err
	}

	return tx.Commit()
}

func writeEntities(ctx context.Context, tx *sql.Tx, snap *graph.Snapshot) error {
	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (short_uid, title, publication_year, publication_date, location,
			abstract, fwci, cited_by_count, type, language, best_oa_url, oa_status, is_stub, is_master)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing paper insert: %w", err)
	}
	defer paperStmt.Close()

	for _, p := range snap.Papers {
		if _, err := paperStmt.ExecContext(ctx,
			p.ShortUID, p.Title, p.PublicationYear, p.PublicationDate, p.Location,
			p.Abstract, p.FWCI, p.CitedByCount, p.Type, p.Language, p.BestOAURL,
			p.OAStatus, p.IsStub, p.ShortUID == snap.MasterUID,
		); err != nil {
			return fmt.Errorf("inserting paper %s: %w", p.ShortUID, err)
		}

		for i, kw := range p.Keywords {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO keywords (paper_short_uid, position, keyword) VALUES (?, ?, ?)`,
				p.ShortUID, i, kw,
			); err != nil {
				return fmt.Errorf("inserting keyword for %s: %w", p.ShortUID, err)
			}
		}
		for tag := range p.RelationshipTags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO relationship_tags (paper_short_uid, tag) VALUES (?, ?)`,
				p.ShortUID, tag,
			); err != nil {
				return fmt.Errorf("inserting tag for %s: %w", p.ShortUID, err)
			}
		}
	}

	for _, a := range snap.Authors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO authors (short_uid, clean_name, orcid, is_stub) VALUES (?, ?, ?, ?)`,
			a.ShortUID, a.CleanName, a.ORCID, a.IsStub,
		); err != nil {
			return fmt.Errorf("inserting author %s: %w", a.ShortUID, err)
		}
	}

	for _, inst := range snap.Institutions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO institutions (short_uid, ror_id, display_name, country_code, type)
			 VALUES (?, ?, ?, ?, ?)`,
			inst.ShortUID, inst.RORID, inst.DisplayName, inst.CountryCode, inst.Type,
		); err != nil {
			return fmt.Errorf("inserting institution %s: %w", inst.ShortUID, err)
		}
	}

	for _, as := range snap.Authorships {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO authorships (paper_short_uid, author_short_uid, author_position,
				is_corresponding, raw_author_name)
			 VALUES (?, ?, ?, ?, ?)`,
			as.PaperUID, as.AuthorUID, as.Position, as.IsCorresponding, as.RawAuthorName,
		); err != nil {
			return fmt.Errorf("inserting authorship %s/%s: %w", as.PaperUID, as.AuthorUID, err)
		}
		for i, instUID := range as.InstitutionUIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO authorship_institutions (paper_short_uid, author_short_uid,
					institution_short_uid, position)
				 VALUES (?, ?, ?, ?)`,
				as.PaperUID, as.AuthorUID, instUID, i,
			); err != nil {
				return fmt.Errorf("inserting authorship institution: %w", err)
			}
		}
	}

	for _, r := range snap.Relationships {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relationships (source_short_uid, relationship_type, target_short_uid, tag)
			 VALUES (?, ?, ?, ?)`,
			r.SourceUID, string(r.Type), r.TargetUID, r.Tag,
		); err != nil {
			return fmt.Errorf("inserting relationship %s: %w", r.Key(), err)
		}
	}

	for key, uid := range snap.ExternalIDs {
		ns, value, ok := splitIndexKey(key)
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO external_ids (namespace, value, short_uid) VALUES (?, ?, ?)`,
			ns, value, uid,
		); err != nil {
			return fmt.Errorf("inserting external id %s: %w", key, err)
		}
	}

	return nil
}

// Counts returns per-table row counts from an exported database. Used to
// verify that an export round-trips the in-memory entity counts.
func Counts(ctx context.Context, path string) (map[string]int, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening export database: %w", err)
	}
	defer db.Close()

	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// splitIndexKey splits a "namespace:value" index key. Values may contain
// colons (DOIs), so only the first colon separates.
func splitIndexKey(key string) (ns, value string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
