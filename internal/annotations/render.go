// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotations renders Zotero highlights and notes into
// per-attachment Markdown files.
package annotations

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

// RenderSummary holds counts from a batch rendering run.
type RenderSummary struct {
	Rendered    int
	Empty       int
	Failed      int
	Annotations int
}

// Total returns the number of attachments processed.
func (s RenderSummary) Total() int {
	return s.Rendered + s.Empty + s.Failed
}

// HasFailures reports whether any attachments failed rendering.
func (s RenderSummary) HasFailures() bool {
	return s.Failed > 0
}

// Render writes the annotations of one attachment to outputDir/ID.md and
// returns the file path and the number of annotations written. When no
// record matches the attachment it writes nothing and returns an empty
// path with a zero count; that is a report, not an error.
func Render(attachmentID int64, records []types.AnnotationRecord, outputDir string) (string, int, error) {
	var selected []types.AnnotationRecord
	for _, rec := range records {
		if rec.AttachmentID == attachmentID {
			selected = append(selected, rec)
		}
	}
	if len(selected) == 0 {
		return "", 0, nil
	}

	sortByPage(selected)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating output directory: %w", err)
	}

	outPath := filepath.Join(outputDir, fmt.Sprintf("%d.md", attachmentID))
	content := renderMarkdown(attachmentID, selected)
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return "", 0, fmt.Errorf("writing %s: %w", outPath, err)
	}
	return outPath, len(selected), nil
}

// RenderAll renders every attachment present in records, in ascending
// attachment-id order, printing per-item progress to w. Per-attachment
// failures are recorded and do not stop the batch.
func RenderAll(records []types.AnnotationRecord, outputDir string, w io.Writer) RenderSummary {
	seen := make(map[int64]bool)
	var ids []int64
	for _, rec := range records {
		if !seen[rec.AttachmentID] {
			seen[rec.AttachmentID] = true
			ids = append(ids, rec.AttachmentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var summary RenderSummary
	total := len(ids)
	for i, id := range ids {
		path, n, err := Render(id, records, outputDir)
		switch {
		case err != nil:
			fmt.Fprintf(w, "[%d/%d] failed: attachment %d (%v)\n", i+1, total, id, err)
			summary.Failed++
		case n == 0:
			fmt.Fprintf(w, "[%d/%d] no annotations for attachment %d\n", i+1, total, id)
			summary.Empty++
		default:
			fmt.Fprintf(w, "[%d/%d] wrote %s (%d annotations)\n", i+1, total, filepath.Base(path), n)
			summary.Rendered++
			summary.Annotations += n
		}
	}

	fmt.Fprintf(w, "\nRendered %d of %d attachments (%d annotations, %d failed)\n",
		summary.Rendered, total, summary.Annotations, summary.Failed)
	return summary
}

// sortByPage orders records by page label ascending with a stable sort, so
// source order is preserved within a page. Records without a page label
// sort last.
func sortByPage(records []types.AnnotationRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return comparePageLabels(records[i].PageLabel, records[j].PageLabel) < 0
	})
}

// comparePageLabels is a total order over page labels: numeric labels come
// first and compare numerically, then non-numeric labels (roman numerals,
// "A-3") compare lexicographically, then absent labels. Keeping the two
// classes apart makes the order well-defined for mixed label sets.
func comparePageLabels(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	na, aerr := strconv.Atoi(a)
	nb, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// renderMarkdown builds the document: a header block from the first
// record's paper context, then one section per page in sorted order with
// one sub-block per annotation.
func renderMarkdown(attachmentID int64, sorted []types.AnnotationRecord) string {
	head := sorted[0]

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", head.PaperTitle)
	fmt.Fprintf(&b, "**Attachment ID:** %d  \n", attachmentID)
	fmt.Fprintf(&b, "**Paper ID:** %d  \n", head.PaperID)
	fmt.Fprintf(&b, "**File Path:** %s  \n\n", head.AttachmentPath)
	b.WriteString("---\n\n")

	currentPage := ""
	havePage := false
	for _, rec := range sorted {
		if !havePage || rec.PageLabel != currentPage {
			if havePage {
				b.WriteString("\n")
			}
			if rec.PageLabel == "" {
				b.WriteString("## Unnumbered\n\n")
			} else {
				fmt.Fprintf(&b, "## Page %s\n\n", rec.PageLabel)
			}
			currentPage = rec.PageLabel
			havePage = true
		}

		fmt.Fprintf(&b, "### %s", capitalize(string(rec.Type)))
		if rec.Color != "" {
			fmt.Fprintf(&b, " `%s`", rec.Color)
		}
		b.WriteString("\n\n")

		if rec.Text != "" {
			fmt.Fprintf(&b, "**Text:** %s\n\n", rec.Text)
		}
		if rec.Comment != "" {
			fmt.Fprintf(&b, "**Comment:** %s\n\n", rec.Comment)
		}
		b.WriteString("---\n\n")
	}

	return b.String()
}

// capitalize upper-cases the first rune of s.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
