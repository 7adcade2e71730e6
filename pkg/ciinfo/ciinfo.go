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

// Package ciinfo extracts CI/CD provider, event, build and repository
// details from the environment of the running job.
package ciinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/interlynk-io/lynk/pkg/logger"
)

type Provider string

const (
	ProviderNone      Provider = ""
	ProviderGitHub    Provider = "github_actions"
	ProviderBitbucket Provider = "bitbucket_pipelines"
	ProviderAzure     Provider = "azure_devops"
	ProviderCircleCI  Provider = "circleci"
	ProviderGeneric   Provider = "generic_ci"
)

type Event struct {
	Type           string `json:"event_type,omitempty"`
	Number         string `json:"number,omitempty"`
	URL            string `json:"url,omitempty"`
	SourceBranch   string `json:"source_branch,omitempty"`
	TargetBranch   string `json:"target_branch,omitempty"`
	Author         string `json:"author,omitempty"`
	ReleaseTag     string `json:"release_tag,omitempty"`
	ReleaseName    string `json:"release_name,omitempty"`
	PRNumber       string `json:"pr_number,omitempty"`
	PRURL          string `json:"pr_url,omitempty"`
	PRTargetBranch string `json:"pr_target_branch,omitempty"`
	PRAuthor       string `json:"pr_author,omitempty"`
}

type Build struct {
	ID        string `json:"build_id,omitempty"`
	Number    string `json:"build_number,omitempty"`
	CommitSHA string `json:"commit_sha,omitempty"`
	URL       string `json:"build_url,omitempty"`
}

type Repository struct {
	Owner string `json:"owner,omitempty"`
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Info is the CI metadata of the current process.
type Info struct {
	Provider   Provider   `json:"ci_provider,omitempty"`
	Event      Event      `json:"event"`
	Build      Build      `json:"build"`
	Repository Repository `json:"repository"`
}

// Detected reports whether any CI provider was found.
func (i *Info) Detected() bool { return i.Provider != ProviderNone }

// Getenv looks up an environment variable, returning "" when unset.
type Getenv func(key string) string

// FromEnvironment detects CI metadata from the process environment.
func FromEnvironment() *Info {
	return Detect(os.Getenv)
}

// Detect builds Info from the given environment lookup.
func Detect(getenv Getenv) *Info {
	info := &Info{Provider: detectProvider(getenv)}

	switch info.Provider {
	case ProviderGitHub:
		info.fromGitHub(getenv)
	case ProviderBitbucket:
		info.fromBitbucket(getenv)
	case ProviderAzure:
		info.fromAzure(getenv)
	case ProviderCircleCI:
		info.fromCircleCI(getenv)
	default:
		info.fromGeneric(getenv)
	}

	if info.Build.CommitSHA == "" {
		info.Build.CommitSHA = firstOf(getenv, "GIT_COMMIT", "COMMIT_SHA", "SHA")
	}
	if info.Build.ID == "" {
		info.Build.ID = firstOf(getenv, "BUILD_ID", "CI_BUILD_ID")
	}
	if info.Build.URL == "" {
		info.Build.URL = getenv("BUILD_URL")
	}
	if info.Repository.URL == "" {
		info.Repository.URL = getenv("REPO_URL")
	}
	return info
}

func detectProvider(getenv Getenv) Provider {
	switch {
	case getenv("GITHUB_ACTIONS") == "true":
		return ProviderGitHub
	case getenv("BITBUCKET_BUILD_NUMBER") != "":
		return ProviderBitbucket
	case strings.EqualFold(getenv("TF_BUILD"), "true"):
		return ProviderAzure
	case getenv("CIRCLECI") == "true":
		return ProviderCircleCI
	case getenv("CI") != "":
		return ProviderGeneric
	}
	return ProviderNone
}

func firstOf(getenv Getenv, keys ...string) string {
	for _, k := range keys {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}

type ghUser struct {
	Login string `json:"login"`
}

type ghRef struct {
	Ref string `json:"ref"`
}

type ghPullRequest struct {
	Number  json.Number `json:"number"`
	HTMLURL string      `json:"html_url"`
	Head    ghRef       `json:"head"`
	Base    ghRef       `json:"base"`
	User    ghUser      `json:"user"`
}

type ghEvent struct {
	PullRequest *ghPullRequest `json:"pull_request"`
	Release     *struct {
		TagName string `json:"tag_name"`
		Name    string `json:"name"`
		Author  ghUser `json:"author"`
	} `json:"release"`
	Repository *struct {
		PullRequests []ghPullRequest `json:"pull_requests"`
	} `json:"repository"`
}

func readGitHubEvent(path string) (*ghEvent, error) {
	if path == "" {
		return nil, fmt.Errorf("no event path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ev ghEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (i *Info) fromGitHub(getenv Getenv) {
	name := getenv("GITHUB_EVENT_NAME")
	i.Event.Type = name
	ev, evErr := readGitHubEvent(getenv("GITHUB_EVENT_PATH"))

	switch {
	case strings.HasPrefix(name, "pull_request"):
		if evErr == nil && ev.PullRequest != nil {
			pr := ev.PullRequest
			i.Event.Number = pr.Number.String()
			i.Event.URL = pr.HTMLURL
			i.Event.SourceBranch = pr.Head.Ref
			i.Event.TargetBranch = pr.Base.Ref
			i.Event.Author = pr.User.Login
		}
	case name == "push":
		ref := getenv("GITHUB_REF")
		switch {
		case strings.HasPrefix(ref, "refs/tags/"):
			i.Event.Type = "release"
			i.Event.ReleaseTag = strings.TrimPrefix(ref, "refs/tags/")
		case strings.HasPrefix(ref, "refs/heads/"):
			i.Event.SourceBranch = strings.TrimPrefix(ref, "refs/heads/")
		}
		i.Event.Author = getenv("GITHUB_ACTOR")

		if evErr == nil {
			var pr *ghPullRequest
			if ev.PullRequest != nil {
				pr = ev.PullRequest
			} else if ev.Repository != nil && len(ev.Repository.PullRequests) > 0 {
				pr = &ev.Repository.PullRequests[0]
			}
			if pr != nil {
				i.Event.PRNumber = pr.Number.String()
				i.Event.PRURL = pr.HTMLURL
				i.Event.PRTargetBranch = pr.Base.Ref
				i.Event.PRAuthor = pr.User.Login
			}
		}
	case name == "release":
		if evErr == nil && ev.Release != nil {
			i.Event.ReleaseTag = ev.Release.TagName
			i.Event.ReleaseName = ev.Release.Name
			i.Event.Author = ev.Release.Author.Login
		}
	}

	server := getenv("GITHUB_SERVER_URL")
	if server == "" {
		server = "https://github.com"
	}
	repo := getenv("GITHUB_REPOSITORY")
	runID := getenv("GITHUB_RUN_ID")

	i.Build = Build{
		ID:        runID,
		Number:    getenv("GITHUB_RUN_NUMBER"),
		CommitSHA: getenv("GITHUB_SHA"),
	}
	if repo != "" {
		i.Build.URL = fmt.Sprintf("%s/%s/actions/runs/%s", server, repo, runID)
		i.Repository.URL = server + "/" + repo
		if owner, name, ok := strings.Cut(repo, "/"); ok {
			i.Repository.Owner, i.Repository.Name = owner, name
		}
	}
}

func (i *Info) fromBitbucket(getenv Getenv) {
	workspace := getenv("BITBUCKET_WORKSPACE")
	slug := getenv("BITBUCKET_REPO_SLUG")
	author := getenv("BITBUCKET_STEP_TRIGGERER_UUID")
	base := fmt.Sprintf("https://bitbucket.org/%s/%s", workspace, slug)

	switch {
	case getenv("BITBUCKET_TAG") != "":
		i.Event = Event{Type: "release", ReleaseTag: getenv("BITBUCKET_TAG"), Author: author}
	case getenv("BITBUCKET_PR_ID") != "":
		prID := getenv("BITBUCKET_PR_ID")
		i.Event = Event{
			Type:         "pull_request",
			Number:       prID,
			URL:          base + "/pull-requests/" + prID,
			SourceBranch: getenv("BITBUCKET_BRANCH"),
			TargetBranch: getenv("BITBUCKET_PR_DESTINATION_BRANCH"),
			Author:       author,
		}
	case getenv("BITBUCKET_BRANCH") != "":
		i.Event = Event{Type: "push", SourceBranch: getenv("BITBUCKET_BRANCH"), Author: author}
	default:
		i.Event.Type = "unknown"
	}

	i.Build = Build{
		Number:    getenv("BITBUCKET_BUILD_NUMBER"),
		CommitSHA: getenv("BITBUCKET_COMMIT"),
		URL:       base + "/pipelines/results/" + getenv("BITBUCKET_BUILD_NUMBER"),
	}
	i.Repository = Repository{Owner: workspace, Name: slug, URL: base}
}

func (i *Info) fromAzure(getenv Getenv) {
	author := getenv("BUILD_REQUESTEDFOR")
	branch := getenv("BUILD_SOURCEBRANCH")

	switch {
	case getenv("SYSTEM_PULLREQUEST_PULLREQUESTID") != "":
		i.Event = Event{
			Type:         "pull_request",
			Number:       firstOf(getenv, "SYSTEM_PULLREQUEST_PULLREQUESTNUMBER", "SYSTEM_PULLREQUEST_PULLREQUESTID"),
			SourceBranch: strings.TrimPrefix(getenv("SYSTEM_PULLREQUEST_SOURCEBRANCH"), "refs/heads/"),
			TargetBranch: strings.TrimPrefix(getenv("SYSTEM_PULLREQUEST_TARGETBRANCH"), "refs/heads/"),
			Author:       author,
		}
	case strings.HasPrefix(branch, "refs/tags/"):
		i.Event = Event{Type: "release", ReleaseTag: strings.TrimPrefix(branch, "refs/tags/"), Author: author}
	default:
		i.Event = Event{Type: "push", SourceBranch: strings.TrimPrefix(branch, "refs/heads/"), Author: author}
	}

	i.Build = Build{
		ID:        getenv("BUILD_BUILDID"),
		Number:    getenv("BUILD_BUILDNUMBER"),
		CommitSHA: getenv("BUILD_SOURCEVERSION"),
	}
	if collection, project := getenv("SYSTEM_COLLECTIONURI"), getenv("SYSTEM_TEAMPROJECT"); collection != "" && project != "" {
		i.Build.URL = fmt.Sprintf("%s%s/_build/results?buildId=%s", collection, project, i.Build.ID)
	}
	i.Repository = Repository{Name: getenv("BUILD_REPOSITORY_NAME"), URL: getenv("BUILD_REPOSITORY_URI")}
}

func (i *Info) fromCircleCI(getenv Getenv) {
	author := getenv("CIRCLE_USERNAME")

	switch {
	case getenv("CIRCLE_TAG") != "":
		i.Event = Event{Type: "release", ReleaseTag: getenv("CIRCLE_TAG"), Author: author}
	case getenv("CIRCLE_PR_NUMBER") != "" || getenv("CIRCLE_PULL_REQUEST") != "":
		i.Event = Event{
			Type:         "pull_request",
			Number:       getenv("CIRCLE_PR_NUMBER"),
			URL:          getenv("CIRCLE_PULL_REQUEST"),
			SourceBranch: getenv("CIRCLE_BRANCH"),
			Author:       author,
		}
	default:
		i.Event = Event{Type: "push", SourceBranch: getenv("CIRCLE_BRANCH"), Author: author}
	}

	i.Build = Build{
		ID:        getenv("CIRCLE_WORKFLOW_ID"),
		Number:    getenv("CIRCLE_BUILD_NUM"),
		CommitSHA: getenv("CIRCLE_SHA1"),
		URL:       getenv("CIRCLE_BUILD_URL"),
	}
	i.Repository = Repository{
		Owner: getenv("CIRCLE_PROJECT_USERNAME"),
		Name:  getenv("CIRCLE_PROJECT_REPONAME"),
		URL:   getenv("CIRCLE_REPOSITORY_URL"),
	}
}

func (i *Info) fromGeneric(getenv Getenv) {
	if pr := firstOf(getenv, "PULL_REQUEST_NUMBER", "PR_NUMBER"); pr != "" {
		i.Event = Event{Type: "pull_request", Number: pr}
		return
	}
	if tag := getenv("GIT_TAG"); tag != "" {
		i.Event = Event{Type: "release", ReleaseTag: tag}
		return
	}
	if i.Provider != ProviderNone {
		i.Event.Type = "push"
	}
}

// EventContext renders a one line summary such as
// "pull_request PR #12 feature -> main by octocat".
func (i *Info) EventContext() string {
	e := i.Event
	if e.Type == "" {
		return ""
	}
	parts := []string{e.Type}

	if n := firstNonEmpty(e.Number, e.PRNumber); n != "" {
		parts = append(parts, "PR #"+n)
	}

	target := firstNonEmpty(e.TargetBranch, e.PRTargetBranch)
	switch {
	case e.SourceBranch != "" && target != "":
		parts = append(parts, e.SourceBranch+" -> "+target)
	case e.SourceBranch != "":
		parts = append(parts, "branch: "+e.SourceBranch)
	}

	if e.ReleaseTag != "" {
		parts = append(parts, "tag: "+e.ReleaseTag)
	}
	if a := firstNonEmpty(e.Author, e.PRAuthor); a != "" {
		parts = append(parts, "by "+a)
	}
	return strings.Join(parts, " ")
}

// Log writes the detected metadata at debug level.
func (i *Info) Log(ctx context.Context) {
	if !i.Detected() {
		logger.LogDebug(ctx, "CI provider not detected")
		return
	}
	logger.LogDebug(ctx, "CI environment detected",
		"provider", string(i.Provider),
		"event", i.EventContext(),
		"build", i.Build,
		"repository", i.Repository,
	)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
