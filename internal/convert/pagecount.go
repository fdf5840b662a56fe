// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// CountPages reports the number of pages in the PDF at path. It parses
// only the document catalog, not page content, so probing is cheap even
// for large files.
func CountPages(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()
	return r.NumPage(), nil
}
