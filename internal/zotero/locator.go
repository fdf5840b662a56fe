// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"path/filepath"
	"strings"

	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

// storagePrefix marks attachment paths stored relative to the Zotero
// storage directory.
const storagePrefix = "storage:"

// defaultStorageDirName is the storage directory name Zotero uses unless
// configured otherwise.
const defaultStorageDirName = "storage"

// ResolveAttachmentPath turns a stored attachment path into an absolute
// filesystem path. Imported attachments are stored as "storage:NAME" and
// live under DataDir/StorageDirName/KEY/NAME; linked attachments already
// carry a full path and are returned unchanged.
func ResolveAttachmentPath(cfg types.LibraryConfig, path, key string) string {
	idx := strings.Index(path, storagePrefix)
	if idx < 0 {
		return path
	}
	name := path[idx+len(storagePrefix):]
	storageDir := cfg.StorageDirName
	if storageDir == "" {
		storageDir = defaultStorageDirName
	}
	return filepath.Join(cfg.DataDir, storageDir, key, name)
}
