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

package snapshot

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// RepositoryGetter defines the GitHub API operations the verifier needs
type RepositoryGetter interface {
	Get(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error)
}

// ✅ RepoInfo is what GitHub currently reports for a resolved repository
type RepoInfo struct {
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	License       string `json:"license"`
	Archived      bool   `json:"archived"`
}

// 🔐 Verifier checks resolved repositories against GitHub
type Verifier struct {
	repos RepositoryGetter
}

// NewVerifier creates a verifier using client. A nil client means the public
// API, authenticated with GITHUB_TOKEN when it is set.
func NewVerifier(client *github.Client) *Verifier {
	if client == nil {
		client = github.NewClient(nil)
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			client = client.WithAuthToken(token)
		}
	}
	return &Verifier{repos: client.Repositories}
}

// Verify fetches the repository named by repo.RepoName.
func (v *Verifier) Verify(ctx context.Context, repo Repo) (RepoInfo, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("repo", repo.RepoName).Msg("verifying repository")

	owner, name, ok := strings.Cut(repo.RepoName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoInfo{}, errors.Errorf("invalid repository name: %s", repo.RepoName)
	}

	// Check if context is already cancelled
	if err := ctx.Err(); err != nil {
		return RepoInfo{}, errors.Errorf("context error: %w", err)
	}

	gh, resp, err := v.repos.Get(ctx, owner, name)
	if err != nil {
		if ctx.Err() != nil {
			return RepoInfo{}, errors.Errorf("context error: %w", ctx.Err())
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return RepoInfo{}, errors.Errorf("%w on GitHub: %s", ErrNotFound, repo.RepoName)
		}
		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			return RepoInfo{}, errors.Errorf("rate limit exceeded: %w", err)
		}
		return RepoInfo{}, errors.Errorf("getting repository from GitHub: %w", err)
	}

	info := RepoInfo{
		FullName:      gh.GetFullName(),
		HTMLURL:       gh.GetHTMLURL(),
		DefaultBranch: gh.GetDefaultBranch(),
		Archived:      gh.GetArchived(),
	}
	if lic := gh.GetLicense(); lic != nil {
		info.License = lic.GetSPDXID()
	}

	return info, nil
}
