// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

// AnnotationsHeader is the column schema of zotero_annotations.csv.
var AnnotationsHeader = []string{
	"annotation_id", "attachment_id", "annotation_type_name",
	"annotation_text", "annotation_comment", "annotation_color",
	"page_label", "attachment_path", "attachment_content_type",
	"paper_id", "paper_title",
}

// WriteAnnotations writes annotation records to an annotations CSV file.
func WriteAnnotations(path string, records []types.AnnotationRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(AnnotationsHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.AnnotationID, 10),
			strconv.FormatInt(rec.AttachmentID, 10),
			string(rec.Type),
			rec.Text,
			rec.Comment,
			rec.Color,
			rec.PageLabel,
			rec.AttachmentPath,
			rec.ContentType,
			strconv.FormatInt(rec.PaperID, 10),
			rec.PaperTitle,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row for annotation %d: %w", rec.AnnotationID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}

// ReadAnnotations reads an annotations CSV file into typed records.
func ReadAnnotations(path string) ([]types.AnnotationRecord, error) {
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
	if err := checkHeader(rows[0], AnnotationsHeader); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	records := make([]types.AnnotationRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		annotationID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad annotation_id %q", path, i+2, row[0])
		}
		attachmentID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad attachment_id %q", path, i+2, row[1])
		}
		paperID, err := strconv.ParseInt(row[9], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad paper_id %q", path, i+2, row[9])
		}
		records = append(records, types.AnnotationRecord{
			AnnotationID:   annotationID,
			AttachmentID:   attachmentID,
			Type:           types.AnnotationType(row[2]),
			Text:           row[3],
			Comment:        row[4],
			Color:          row[5],
			PageLabel:      row[6],
			AttachmentPath: row[7],
			ContentType:    row[8],
			PaperID:        paperID,
			PaperTitle:     row[10],
		})
	}
	return records, nil
}
