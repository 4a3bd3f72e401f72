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

// Package snapshot maps the short repository ids used as input file names
// back to the repositories they were derived from.
//
// A snapshot is a JSON object of full hex repository hash to repository URL.
// The short id of an entry is the zero-padded hex CRC32 (IEEE) of the
// decoded hash bytes.
package snapshot

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrNotFound means no snapshot entry has the requested short id.
var ErrNotFound = errors.Base("repository not found")

// commitLength is the number of leading hash characters that form the commit SHA.
const commitLength = 40

// 📦 Repo is one resolved snapshot entry
type Repo struct {
	OriginalRepoID string `json:"original_repo_id"`
	RepoURL        string `json:"repo_url"`
	RepoName       string `json:"repo_name"`
	CommitSHA      string `json:"commit_sha"`
}

// 🗂️ Index resolves short ids to repositories
type Index struct {
	entries map[string]Repo
}

// Load reads and indexes the snapshot at path.
func Load(ctx context.Context, path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	idx, err := Parse(f)
	if err != nil {
		return nil, errors.Errorf("reading snapshot %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("entries", idx.Len()).Msg("snapshot loaded")

	return idx, nil
}

// Parse indexes a snapshot document. When two entries share a short id the
// first one in the document wins.
func Parse(r io.Reader) (*Index, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Errorf("decoding snapshot: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.Errorf("snapshot must be a JSON object")
	}

	idx := &Index{entries: map[string]Repo{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Errorf("decoding snapshot key: %w", err)
		}
		fullHash := tok.(string)

		var url string
		if err := dec.Decode(&url); err != nil {
			return nil, errors.Errorf("decoding url of %s: %w", fullHash, err)
		}

		short, err := ShortID(fullHash)
		if err != nil {
			return nil, err
		}
		if _, ok := idx.entries[short]; ok {
			continue
		}
		idx.entries[short] = newRepo(fullHash, url)
	}

	if _, err := dec.Token(); err != nil {
		return nil, errors.Errorf("decoding snapshot: %w", err)
	}

	return idx, nil
}

// ShortID derives the 8 character id of a full hex repository hash.
func ShortID(fullHash string) (string, error) {
	raw, err := hex.DecodeString(fullHash)
	if err != nil {
		return "", errors.Errorf("snapshot key %q is not hex: %w", fullHash, err)
	}
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(raw)), nil
}

func newRepo(fullHash, url string) Repo {
	commit := fullHash
	if len(commit) > commitLength {
		commit = commit[:commitLength]
	}
	return Repo{
		OriginalRepoID: fullHash,
		RepoURL:        url,
		RepoName:       repoName(url),
		CommitSHA:      commit,
	}
}

// repoName is the last two segments of url, "owner/name".
func repoName(url string) string {
	parts := strings.Split(strings.TrimSuffix(url, "/"), "/")
	if len(parts) < 2 {
		return url
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

// Len is the number of distinct short ids.
func (i *Index) Len() int {
	return len(i.entries)
}

// 🔍 Lookup resolves a short id. Case is ignored.
func (i *Index) Lookup(shortID string) (Repo, error) {
	repo, ok := i.entries[strings.ToLower(strings.TrimSpace(shortID))]
	if !ok {
		return Repo{}, errors.Errorf("%w: %s", ErrNotFound, shortID)
	}
	return repo, nil
}
