// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tabular reads and writes the CSV interchange files between
// pipeline stages. Each table has a fixed column schema; rows are decoded
// into typed records and validated at the ingestion boundary.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

// MetadataHeader is the column schema of zotero_metadata.csv. The columns
// are the public contract between metadata extraction and conversion.
var MetadataHeader = []string{
	"paper_id", "paper_key", "paper_date_added", "paper_date_modified",
	"paper_title", "authors", "collection_names", "attachment_id",
	"attachment_key", "attachment_date_added", "contentType",
	"attachment_path", "link_mode", "attachment_fullpath",
}

// WriteMetadata writes attachment records to a metadata CSV file.
func WriteMetadata(path string, records []types.AttachmentRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(MetadataHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.PaperID, 10),
			rec.PaperKey,
			rec.PaperDateAdded,
			rec.PaperDateModified,
			rec.PaperTitle,
			rec.Authors,
			rec.Collections,
			strconv.FormatInt(rec.AttachmentID, 10),
			rec.AttachmentKey,
			rec.AttachmentDateAdded,
			rec.ContentType,
			rec.AttachmentPath,
			string(rec.LinkMode),
			rec.FullPath,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row for attachment %d: %w", rec.AttachmentID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}

// ReadMetadata reads a metadata CSV file into typed records. The header
// must match MetadataHeader exactly; numeric columns must parse.
func ReadMetadata(path string) ([]types.AttachmentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file, expected header row", path)
	}
	if err := checkHeader(rows[0], MetadataHeader); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	records := make([]types.AttachmentRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		paperID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad paper_id %q", path, i+2, row[0])
		}
		attachmentID, err := strconv.ParseInt(row[7], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad attachment_id %q", path, i+2, row[7])
		}
		records = append(records, types.AttachmentRecord{
			PaperID:             paperID,
			PaperKey:            row[1],
			PaperDateAdded:      row[2],
			PaperDateModified:   row[3],
			PaperTitle:          row[4],
			Authors:             row[5],
			Collections:         row[6],
			AttachmentID:        attachmentID,
			AttachmentKey:       row[8],
			AttachmentDateAdded: row[9],
			ContentType:         row[10],
			AttachmentPath:      row[11],
			LinkMode:            types.LinkMode(row[12]),
			FullPath:            row[13],
		})
	}
	return records, nil
}

// PDFAttachments filters metadata records down to PDF attachments, the
// only content type the conversion stage handles.
func PDFAttachments(records []types.AttachmentRecord) []types.AttachmentRecord {
	var pdfs []types.AttachmentRecord
	for _, rec := range records {
		if rec.ContentType == "application/pdf" {
			pdfs = append(pdfs, rec)
		}
	}
	return pdfs
}

// checkHeader verifies that a parsed header row matches the expected schema.
func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("header has %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("header column %d is %q, want %q", i, got[i], want[i])
		}
	}
	return nil
}
