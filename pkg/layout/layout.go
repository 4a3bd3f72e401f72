// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package layout maps a record's stored file path onto the output tree.
//
//	<output>/files/<relative>                copied source file
//	<output>/metadata/<relative>.meta.json   sidecar document
package layout

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	// FilesDir holds the copied source files.
	FilesDir = "files"
	// MetadataDir holds one sidecar per copied file.
	MetadataDir = "metadata"
	// MetadataSuffix is appended after the original extension.
	MetadataSuffix = ".meta.json"

	// reservedPrefix is stripped once when it is the first segment of a stored path.
	reservedPrefix = "data"
)

// 🗺️ Paths is the resolved location of one record's source and outputs
type Paths struct {
	// SourceLocation is the workspace root joined with the stored path, unresolved.
	SourceLocation string
	// Relative is the stored path with a leading "data" segment removed.
	Relative string
	// FilePath is the copy destination relative to the output root, slash separated.
	FilePath string
	// MetadataPath is the sidecar destination relative to the output root, slash separated.
	MetadataPath string
}

// Empty reports whether the stored path normalized to nothing (a bare "data").
func (p Paths) Empty() bool {
	return p.Relative == ""
}

// Escapes reports whether the relative path climbs out of the output trees
// or is absolute.
func (p Paths) Escapes() bool {
	return p.Relative == ".." || strings.HasPrefix(p.Relative, "../") || path.IsAbs(p.Relative)
}

// Resolve computes every path for filePath. It never fails. Destinations
// stay empty when the relative path is empty or escapes.
func Resolve(workspaceRoot, filePath string) Paths {
	rel := NormalizeRelativePath(filePath)

	p := Paths{
		SourceLocation: filepath.Join(workspaceRoot, filepath.FromSlash(filePath)),
		Relative:       rel,
	}
	if p.Empty() || p.Escapes() {
		return p
	}

	p.FilePath = path.Join(FilesDir, rel)
	p.MetadataPath = path.Join(MetadataDir, rel) + MetadataSuffix
	return p
}

// NormalizeRelativePath removes the first path segment if and only if it is
// "data". Later "data" segments are kept. A bare "data" or a path that
// cleans to "." becomes "".
func NormalizeRelativePath(filePath string) string {
	if filePath == "" {
		return ""
	}

	clean := path.Clean(filepath.ToSlash(filePath))
	if clean == reservedPrefix || clean == "." {
		return ""
	}
	if rest, ok := strings.CutPrefix(clean, reservedPrefix+"/"); ok {
		return rest
	}
	return clean
}
