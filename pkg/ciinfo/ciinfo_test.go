// Copyright 2025 Interlynk.io
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

package ciinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func envOf(kv map[string]string) Getenv {
	return func(k string) string { return kv[k] }
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Provider
	}{
		{name: "none", env: map[string]string{}, want: ProviderNone},
		{name: "github wins over CI", env: map[string]string{"CI": "true", "GITHUB_ACTIONS": "true"}, want: ProviderGitHub},
		{name: "bitbucket", env: map[string]string{"CI": "true", "BITBUCKET_BUILD_NUMBER": "9"}, want: ProviderBitbucket},
		{name: "azure", env: map[string]string{"TF_BUILD": "True"}, want: ProviderAzure},
		{name: "circleci", env: map[string]string{"CI": "true", "CIRCLECI": "true"}, want: ProviderCircleCI},
		{name: "generic", env: map[string]string{"CI": "1"}, want: ProviderGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Detect(envOf(tt.env))
			assert.Equal(t, tt.want, info.Provider)
			assert.Equal(t, tt.want != ProviderNone, info.Detected())
		})
	}
}

func TestGitHubPullRequest(t *testing.T) {
	info := Detect(envOf(map[string]string{
		"GITHUB_ACTIONS":    "true",
		"GITHUB_EVENT_NAME": "pull_request",
		"GITHUB_EVENT_PATH": "testdata/pull_request.json",
		"GITHUB_REPOSITORY": "acme/app",
		"GITHUB_RUN_ID":     "100",
		"GITHUB_RUN_NUMBER": "5",
		"GITHUB_SHA":        "abc123",
	}))

	assert.Equal(t, Event{
		Type:         "pull_request",
		Number:       "42",
		URL:          "https://github.com/acme/app/pull/42",
		SourceBranch: "feature",
		TargetBranch: "main",
		Author:       "octocat",
	}, info.Event)
	assert.Equal(t, Build{
		ID:        "100",
		Number:    "5",
		CommitSHA: "abc123",
		URL:       "https://github.com/acme/app/actions/runs/100",
	}, info.Build)
	assert.Equal(t, Repository{Owner: "acme", Name: "app", URL: "https://github.com/acme/app"}, info.Repository)
	assert.Equal(t, "pull_request PR #42 feature -> main by octocat", info.EventContext())
}

func TestGitHubPush(t *testing.T) {
	t.Run("tag push is a release", func(t *testing.T) {
		info := Detect(envOf(map[string]string{
			"GITHUB_ACTIONS":    "true",
			"GITHUB_EVENT_NAME": "push",
			"GITHUB_REF":        "refs/tags/v1.2.3",
			"GITHUB_ACTOR":      "octocat",
		}))
		assert.Equal(t, "release", info.Event.Type)
		assert.Equal(t, "v1.2.3", info.Event.ReleaseTag)
		assert.Equal(t, "release tag: v1.2.3 by octocat", info.EventContext())
	})

	t.Run("branch push with associated PR", func(t *testing.T) {
		info := Detect(envOf(map[string]string{
			"GITHUB_ACTIONS":    "true",
			"GITHUB_EVENT_NAME": "push",
			"GITHUB_EVENT_PATH": "testdata/push.json",
			"GITHUB_REF":        "refs/heads/feature",
			"GITHUB_ACTOR":      "octocat",
		}))
		assert.Equal(t, "feature", info.Event.SourceBranch)
		assert.Equal(t, "7", info.Event.PRNumber)
		assert.Equal(t, "main", info.Event.PRTargetBranch)
		assert.Equal(t, "push PR #7 feature -> main by octocat", info.EventContext())
	})

	t.Run("missing event file", func(t *testing.T) {
		info := Detect(envOf(map[string]string{
			"GITHUB_ACTIONS":    "true",
			"GITHUB_EVENT_NAME": "push",
			"GITHUB_EVENT_PATH": "testdata/missing.json",
			"GITHUB_REF":        "refs/heads/main",
		}))
		assert.Equal(t, "main", info.Event.SourceBranch)
		assert.Empty(t, info.Event.PRNumber)
	})
}

func TestBitbucket(t *testing.T) {
	info := Detect(envOf(map[string]string{
		"BITBUCKET_BUILD_NUMBER":          "9",
		"BITBUCKET_WORKSPACE":             "acme",
		"BITBUCKET_REPO_SLUG":             "app",
		"BITBUCKET_PR_ID":                 "3",
		"BITBUCKET_BRANCH":                "feature",
		"BITBUCKET_PR_DESTINATION_BRANCH": "main",
		"BITBUCKET_COMMIT":                "def456",
	}))

	assert.Equal(t, "pull_request", info.Event.Type)
	assert.Equal(t, "https://bitbucket.org/acme/app/pull-requests/3", info.Event.URL)
	assert.Equal(t, "https://bitbucket.org/acme/app/pipelines/results/9", info.Build.URL)
	assert.Equal(t, "def456", info.Build.CommitSHA)
	assert.Equal(t, "app", info.Repository.Name)
}

func TestGenericFallbacks(t *testing.T) {
	info := Detect(envOf(map[string]string{
		"CI":         "true",
		"GIT_TAG":    "v2",
		"GIT_COMMIT": "c0ffee",
		"BUILD_URL":  "https://ci.example.com/1",
		"REPO_URL":   "https://git.example.com/app",
	}))

	assert.Equal(t, "release", info.Event.Type)
	assert.Equal(t, "c0ffee", info.Build.CommitSHA)
	assert.Equal(t, "https://ci.example.com/1", info.Build.URL)
	assert.Equal(t, "https://git.example.com/app", info.Repository.URL)
}

func TestNotInCI(t *testing.T) {
	info := Detect(envOf(map[string]string{}))
	assert.False(t, info.Detected())
	assert.Equal(t, "", info.EventContext())
}
