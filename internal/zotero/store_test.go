// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

// fixtureSchema is the subset of the Zotero schema the queries touch.
const fixtureSchema = `
CREATE TABLE items (
    itemID INTEGER PRIMARY KEY,
    key TEXT,
    dateAdded TEXT,
    dateModified TEXT
);
CREATE TABLE itemAttachments (
    itemID INTEGER PRIMARY KEY,
    parentItemID INTEGER,
    contentType TEXT,
    path TEXT,
    linkMode INTEGER
);
CREATE TABLE itemData (
    itemID INTEGER,
    fieldID INTEGER,
    valueID INTEGER
);
CREATE TABLE itemDataValues (
    valueID INTEGER PRIMARY KEY,
    value TEXT
);
CREATE TABLE itemCreators (
    itemID INTEGER,
    creatorID INTEGER,
    orderIndex INTEGER
);
CREATE TABLE creators (
    creatorID INTEGER PRIMARY KEY,
    firstName TEXT,
    lastName TEXT
);
CREATE TABLE collections (
    collectionID INTEGER PRIMARY KEY,
    collectionName TEXT
);
CREATE TABLE collectionItems (
    collectionID INTEGER,
    itemID INTEGER
);
CREATE TABLE itemAnnotations (
    itemID INTEGER PRIMARY KEY,
    parentItemID INTEGER,
    type INTEGER,
    text TEXT,
    comment TEXT,
    color TEXT,
    pageLabel TEXT
);`

// newFixtureLibrary builds a small Zotero database with two papers: one
// fully populated (title, author, collection, imported PDF, annotations)
// and one with every optional field absent and a linked attachment.
func newFixtureLibrary(t *testing.T) types.LibraryConfig {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "zotero.sqlite")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(fixtureSchema)
	require.NoError(t, err)

	stmts := []string{
		// Paper 1: full metadata, added later so it sorts first.
		`INSERT INTO items VALUES (1, 'PAPER001', '2024-03-02 10:00:00', '2024-03-02 10:00:00')`,
		`INSERT INTO itemDataValues VALUES (50, 'Nitrogen cycling' || char(10) || 'in river networks')`,
		`INSERT INTO itemData VALUES (1, 1, 50)`,
		`INSERT INTO creators VALUES (7, 'John', 'Smith')`,
		`INSERT INTO itemCreators VALUES (1, 7, 0)`,
		`INSERT INTO collections VALUES (3, 'Hydrology')`,
		`INSERT INTO collectionItems VALUES (3, 1)`,
		`INSERT INTO items VALUES (10, 'ATTACH01', '2024-03-02 10:01:00', '2024-03-02 10:01:00')`,
		`INSERT INTO itemAttachments VALUES (10, 1, 'application/pdf', 'storage:paper.pdf', 0)`,

		// Paper 2: no title, no creators, no collections, linked file.
		`INSERT INTO items VALUES (2, 'PAPER002', '2024-01-15 09:00:00', '2024-01-15 09:00:00')`,
		`INSERT INTO items VALUES (11, 'ATTACH02', '2024-01-15 09:01:00', '2024-01-15 09:01:00')`,
		`INSERT INTO itemAttachments VALUES (11, 2, 'text/html', '/data/external/report.html', 2)`,

		// Annotations on the PDF attachment.
		`INSERT INTO itemAnnotations VALUES (100, 10, 1, '  highlighted' || char(10) || ' passage  ', NULL, '#ffd400', '3')`,
		`INSERT INTO itemAnnotations VALUES (101, 10, 2, NULL, 'a margin note', '#5fb236', NULL)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "statement: %s", stmt)
	}

	return types.LibraryConfig{DataDir: dir}
}

func TestOpenMissingDatabase(t *testing.T) {
	cfg := types.LibraryConfig{DataDir: t.TempDir()}
	_, err := Open(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zotero database not found")
}

func TestAttachments(t *testing.T) {
	cfg := newFixtureLibrary(t)
	store, err := Open(cfg)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Attachments(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Sorted by paper dateAdded descending: the newer paper first.
	full := records[0]
	assert.Equal(t, int64(1), full.PaperID)
	assert.Equal(t, "PAPER001", full.PaperKey)
	assert.Equal(t, "Nitrogen cycling in river networks", full.PaperTitle, "title newlines are flattened")
	assert.Equal(t, "Smith, John", full.Authors)
	assert.Equal(t, "Hydrology", full.Collections)
	assert.Equal(t, int64(10), full.AttachmentID)
	assert.Equal(t, "ATTACH01", full.AttachmentKey)
	assert.Equal(t, "application/pdf", full.ContentType)
	assert.Equal(t, "storage:paper.pdf", full.AttachmentPath)
	assert.Equal(t, types.LinkImportedFile, full.LinkMode)
	assert.Equal(t, filepath.Join(cfg.DataDir, "storage", "ATTACH01", "paper.pdf"), full.FullPath)

	bare := records[1]
	assert.Equal(t, int64(2), bare.PaperID)
	assert.Equal(t, "No Title", bare.PaperTitle)
	assert.Equal(t, "Unknown Author", bare.Authors)
	assert.Equal(t, "Uncategorized", bare.Collections)
	assert.Equal(t, types.LinkLinkedFile, bare.LinkMode)
	assert.Equal(t, "/data/external/report.html", bare.FullPath, "linked paths pass through unresolved")
}

func TestAnnotations(t *testing.T) {
	cfg := newFixtureLibrary(t)
	store, err := Open(cfg)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Annotations(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	highlight := records[0]
	assert.Equal(t, int64(100), highlight.AnnotationID)
	assert.Equal(t, int64(10), highlight.AttachmentID)
	assert.Equal(t, types.AnnotationHighlight, highlight.Type)
	assert.Equal(t, "highlighted passage", highlight.Text, "whitespace runs collapse to single spaces")
	assert.Empty(t, highlight.Comment)
	assert.Equal(t, "#ffd400", highlight.Color)
	assert.Equal(t, "3", highlight.PageLabel)
	assert.Equal(t, int64(1), highlight.PaperID)
	assert.Equal(t, "Nitrogen cycling in river networks", highlight.PaperTitle)

	note := records[1]
	assert.Equal(t, types.AnnotationNote, note.Type)
	assert.Empty(t, note.Text)
	assert.Equal(t, "a margin note", note.Comment)
	assert.Empty(t, note.PageLabel)
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"  padded  ", "padded"},
		{"line\nbreaks\nhere", "line breaks here"},
		{"tabs\tand\r\nreturns", "tabs and returns"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeWhitespace(tt.in), "input %q", tt.in)
	}
}
