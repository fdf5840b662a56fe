// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LinkMode describes how an attachment is linked to its parent item,
// decoded from the numeric linkMode column in the Zotero database.
type LinkMode string

const (
	LinkImportedFile LinkMode = "imported_file"
	LinkImportedURL  LinkMode = "imported_url"
	LinkLinkedFile   LinkMode = "linked_file"
	LinkLinkedURL    LinkMode = "linked_url"
	LinkUnknown      LinkMode = "unknown"
)

// LinkModeName decodes a Zotero linkMode column value.
func LinkModeName(mode int64) LinkMode {
	switch mode {
	case 0:
		return LinkImportedFile
	case 1:
		return LinkImportedURL
	case 2:
		return LinkLinkedFile
	case 3:
		return LinkLinkedURL
	default:
		return LinkUnknown
	}
}

// AttachmentRecord is one paper-attachment pair from the Zotero library.
// One record becomes one row of zotero_metadata.csv; the CSV columns are
// the public schema between the extraction and conversion stages.
type AttachmentRecord struct {
	PaperID           int64
	PaperKey          string
	PaperDateAdded    string
	PaperDateModified string

	// PaperTitle is the parent item title, "No Title" when absent.
	PaperTitle string

	// Authors is "Last, First; Last, First; ..." or "Unknown Author".
	Authors string

	// Collections is "; "-joined collection names or "Uncategorized".
	Collections string

	AttachmentID        int64
	AttachmentKey       string
	AttachmentDateAdded string
	ContentType         string

	// AttachmentPath is the raw stored path, commonly "storage:NAME.pdf".
	AttachmentPath string

	LinkMode LinkMode

	// FullPath is the resolved absolute filesystem path of the attachment.
	FullPath string
}

// AnnotationType categorizes a Zotero annotation.
type AnnotationType string

const (
	AnnotationHighlight AnnotationType = "highlight"
	AnnotationNote      AnnotationType = "note"
	AnnotationImage     AnnotationType = "image"
	AnnotationInk       AnnotationType = "ink"
	AnnotationUnknown   AnnotationType = "unknown"
)

// AnnotationTypeName decodes a Zotero annotation type column value.
func AnnotationTypeName(t int64) AnnotationType {
	switch t {
	case 1:
		return AnnotationHighlight
	case 2:
		return AnnotationNote
	case 3:
		return AnnotationImage
	case 4:
		return AnnotationInk
	default:
		return AnnotationUnknown
	}
}

// AnnotationRecord is one highlight, note, image, or ink annotation joined
// to its parent attachment and paper. One record becomes one row of
// zotero_annotations.csv.
type AnnotationRecord struct {
	AnnotationID int64
	AttachmentID int64
	Type         AnnotationType

	// Text is the highlighted passage, whitespace-normalized. Empty for
	// annotations without a text selection.
	Text string

	// Comment is the user's note attached to the annotation, may be empty.
	Comment string

	// Color is the annotation color as a hex string (e.g. "#ffd400").
	Color string

	// PageLabel is the page the annotation sits on. Zotero page labels are
	// strings ("iv", "A-3", "12"); empty when the label is missing.
	PageLabel string

	AttachmentPath string
	ContentType    string
	PaperID        int64
	PaperTitle     string
}

// ConversionStatus is the terminal outcome of one conversion request.
type ConversionStatus string

const (
	// StatusConverted marks a freshly produced Markdown file.
	StatusConverted ConversionStatus = "converted"

	// StatusAlreadyDone marks a request skipped because its output file
	// already existed. Counts as success for downstream purposes.
	StatusAlreadyDone ConversionStatus = "already_done"

	// StatusSkippedTooLarge marks a document over the page limit.
	StatusSkippedTooLarge ConversionStatus = "skipped_too_large"

	// StatusSkippedUnknownPages marks a document whose page count could not
	// be determined (probe failure or zero pages).
	StatusSkippedUnknownPages ConversionStatus = "skipped_unknown_pages"

	// StatusFailed marks a request that errored during conversion.
	StatusFailed ConversionStatus = "failed"
)

// ConversionRequest identifies one source document for batch conversion.
// ID is unique within a batch and disambiguates output filenames and
// relocated image assets.
type ConversionRequest struct {
	// SourcePath is the absolute path to the source PDF.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// ID is the attachment identifier used as the filename and image prefix.
	ID int64 `json:"id" yaml:"id"`
}

// ConversionResult records the outcome of one ConversionRequest.
type ConversionResult struct {
	ID int64 `json:"id" yaml:"id"`

	// MarkdownPath is the canonical output path, set for converted and
	// already-done outcomes.
	MarkdownPath string `json:"markdown_path,omitempty" yaml:"markdown_path,omitempty"`

	Status ConversionStatus `json:"status" yaml:"status"`

	// Reason explains skipped and failed outcomes.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}
