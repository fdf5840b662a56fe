// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero provides read-only query access to a Zotero SQLite
// library: paper-attachment metadata, annotations, and storage-path
// resolution. The database is never written.
package zotero

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

const (
	dbFile = "zotero.sqlite"

	// titleFieldID is the itemData fieldID for the title field.
	titleFieldID = 1
)

// Store wraps a read-only connection to a Zotero database.
type Store struct {
	db  *sql.DB
	cfg types.LibraryConfig
}

// Open connects to the Zotero database in read-only mode. A missing
// database file is a stage-level error.
func Open(cfg types.LibraryConfig) (*Store, error) {
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.DataDir, dbFile)
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("zotero database not found at %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Store{db: db, cfg: cfg}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// attachmentsQuery joins every attachment to its parent item, the parent's
// title, concatenated authors, and distinct collection memberships.
const attachmentsQuery = `
SELECT
    parent_items.itemID AS paper_id,
    parent_items.key AS paper_key,
    parent_items.dateAdded AS paper_date_added,
    parent_items.dateModified AS paper_date_modified,
    title_values.value AS paper_title,
    GROUP_CONCAT(
        CASE
            WHEN creators.firstName IS NOT NULL AND creators.lastName IS NOT NULL
            THEN creators.lastName || ', ' || creators.firstName
            WHEN creators.lastName IS NOT NULL
            THEN creators.lastName
            ELSE creators.firstName
        END, '; ') AS authors,
    (SELECT GROUP_CONCAT(c.collectionName, '; ')
     FROM (SELECT DISTINCT ci2.itemID, c.collectionName
           FROM collectionItems ci2
           JOIN collections c ON ci2.collectionID = c.collectionID
           WHERE ci2.itemID = parent_items.itemID) c) AS collection_names,
    attachments.itemID AS attachment_id,
    attachment_items.key AS attachment_key,
    attachment_items.dateAdded AS attachment_date_added,
    attachments.contentType,
    attachments.path AS attachment_path,
    attachments.linkMode
FROM itemAttachments attachments
JOIN items attachment_items ON attachments.itemID = attachment_items.itemID
JOIN items parent_items ON attachments.parentItemID = parent_items.itemID
LEFT JOIN itemData title_data
    ON parent_items.itemID = title_data.itemID AND title_data.fieldID = ?
LEFT JOIN itemDataValues title_values ON title_data.valueID = title_values.valueID
LEFT JOIN itemCreators ic ON parent_items.itemID = ic.itemID
LEFT JOIN creators ON ic.creatorID = creators.creatorID
WHERE attachments.parentItemID IS NOT NULL
GROUP BY
    parent_items.itemID,
    attachments.itemID,
    parent_items.key,
    parent_items.dateAdded,
    parent_items.dateModified,
    title_values.value,
    attachments.contentType,
    attachments.path,
    attachment_items.key,
    attachment_items.dateAdded,
    attachments.linkMode
ORDER BY parent_items.dateAdded DESC, attachments.itemID`

// Attachments returns every paper-attachment pair in the library. Titles
// are flattened to single lines, absent authors and collections get their
// fallback values, and FullPath is resolved through the storage locator.
func (s *Store) Attachments(ctx context.Context) ([]types.AttachmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, attachmentsQuery, titleFieldID)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	var records []types.AttachmentRecord
	for rows.Next() {
		var (
			rec         types.AttachmentRecord
			title       sql.NullString
			authors     sql.NullString
			collections sql.NullString
			contentType sql.NullString
			path        sql.NullString
			linkMode    sql.NullInt64
		)
		if err := rows.Scan(
			&rec.PaperID, &rec.PaperKey, &rec.PaperDateAdded, &rec.PaperDateModified,
			&title, &authors, &collections,
			&rec.AttachmentID, &rec.AttachmentKey, &rec.AttachmentDateAdded,
			&contentType, &path, &linkMode,
		); err != nil {
			return nil, fmt.Errorf("scanning attachment row: %w", err)
		}

		rec.PaperTitle = flattenTitle(title.String)
		if rec.PaperTitle == "" {
			rec.PaperTitle = "No Title"
		}
		rec.Authors = authors.String
		if rec.Authors == "" {
			rec.Authors = "Unknown Author"
		}
		rec.Collections = collections.String
		if rec.Collections == "" {
			rec.Collections = "Uncategorized"
		}
		rec.ContentType = contentType.String
		rec.AttachmentPath = path.String
		rec.LinkMode = types.LinkModeName(linkMode.Int64)
		rec.FullPath = ResolveAttachmentPath(s.cfg, rec.AttachmentPath, rec.AttachmentKey)

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading attachment rows: %w", err)
	}
	return records, nil
}

// annotationsQuery joins every annotation to its parent attachment and the
// attachment's parent paper title.
const annotationsQuery = `
SELECT
    ia.itemID AS annotation_id,
    ia.parentItemID AS attachment_id,
    ia.type AS annotation_type,
    ia.text AS annotation_text,
    ia.comment AS annotation_comment,
    ia.color AS annotation_color,
    ia.pageLabel AS page_label,
    attachments.path AS attachment_path,
    attachments.contentType AS attachment_content_type,
    attachments.parentItemID AS paper_id,
    title_values.value AS paper_title
FROM itemAnnotations ia
LEFT JOIN itemAttachments attachments ON ia.parentItemID = attachments.itemID
LEFT JOIN itemData title_data
    ON attachments.parentItemID = title_data.itemID AND title_data.fieldID = ?
LEFT JOIN itemDataValues title_values ON title_data.valueID = title_values.valueID
ORDER BY ia.itemID`

// Annotations returns every annotation in the library with paper and
// attachment context. Highlight text and comments are whitespace-normalized
// so they survive the CSV round-trip as single lines.
func (s *Store) Annotations(ctx context.Context) ([]types.AnnotationRecord, error) {
	rows, err := s.db.QueryContext(ctx, annotationsQuery, titleFieldID)
	if err != nil {
		return nil, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	var records []types.AnnotationRecord
	for rows.Next() {
		var (
			rec         types.AnnotationRecord
			annType     sql.NullInt64
			text        sql.NullString
			comment     sql.NullString
			color       sql.NullString
			pageLabel   sql.NullString
			path        sql.NullString
			contentType sql.NullString
			paperID     sql.NullInt64
			title       sql.NullString
		)
		if err := rows.Scan(
			&rec.AnnotationID, &rec.AttachmentID, &annType,
			&text, &comment, &color, &pageLabel,
			&path, &contentType, &paperID, &title,
		); err != nil {
			return nil, fmt.Errorf("scanning annotation row: %w", err)
		}

		rec.Type = types.AnnotationTypeName(annType.Int64)
		rec.Text = normalizeWhitespace(text.String)
		rec.Comment = normalizeWhitespace(comment.String)
		rec.Color = color.String
		rec.PageLabel = pageLabel.String
		rec.AttachmentPath = path.String
		rec.ContentType = contentType.String
		rec.PaperID = paperID.Int64
		rec.PaperTitle = flattenTitle(title.String)
		if rec.PaperTitle == "" {
			rec.PaperTitle = "No Title"
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading annotation rows: %w", err)
	}
	return records, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeWhitespace collapses newlines, tabs, and runs of spaces into
// single spaces and trims the result.
func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// flattenTitle replaces line breaks with spaces and trims.
func flattenTitle(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
