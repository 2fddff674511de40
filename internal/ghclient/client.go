// Package ghclient implements the GitHub REST collaborator: issue listing,
// timeline events, contributor listing, repository metadata, and raw
// per-user activity aggregation.
package ghclient

import (
	"context"
	"fmt"
	"os"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/assignwatch/assignwatch/internal/log"
	"github.com/assignwatch/assignwatch/internal/model"
)

const defaultPerPage = 50

// Client wraps the GitHub API client.
type Client struct {
	client *gh.Client
	// token is intentionally unexported. NEVER add String(), MarshalJSON(),
	// or any method that could expose this value in logs or serialized output.
	token string
}

// NewClient creates a new GitHub client using a personal access token.
func NewClient(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Transport = &rateLimitTransport{base: httpClient.Transport}

	return &Client{
		client: gh.NewClient(httpClient),
		token:  token,
	}, nil
}

// Issues lists issues for a repository. The GitHub issues API includes
// PR-linked issues; they are carried through with the PullRequest flag set.
func (c *Client) Issues(ctx context.Context, owner, repo string, opts model.IssueListOptions) ([]model.Issue, error) {
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	state := opts.State
	if state == "" {
		state = "all"
	}

	ghOpts := &gh.IssueListByRepoOptions{
		State:       state,
		Sort:        opts.Sort,
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var raw []*gh.Issue
	err := withRetry(ctx, "list issues", func() error {
		var err error
		raw, _, err = c.client.Issues.ListByRepo(ctx, owner, repo, ghOpts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list issues for %s/%s: %w", owner, repo, err)
	}

	issues := make([]model.Issue, 0, len(raw))
	for _, is := range raw {
		issues = append(issues, convertIssue(is))
	}
	log.Debug("listed issues", "repo", owner+"/"+repo, "count", len(issues))
	return issues, nil
}

// Timeline lists the timeline events for an issue, oldest first.
func (c *Client) Timeline(ctx context.Context, owner, repo string, number int) ([]model.TimelineEvent, error) {
	var events []model.TimelineEvent
	opts := &gh.ListOptions{PerPage: 100}

	for {
		var page []*gh.Timeline
		var resp *gh.Response
		err := withRetry(ctx, "list timeline", func() error {
			var err error
			page, resp, err = c.client.Issues.ListIssueTimeline(ctx, owner, repo, number, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list timeline for %s/%s#%d: %w", owner, repo, number, err)
		}

		for _, ev := range page {
			events = append(events, convertTimelineEvent(ev))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return events, nil
}

// Repository fetches repository metadata.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*model.RepoMeta, error) {
	var raw *gh.Repository
	err := withRetry(ctx, "get repository", func() error {
		var err error
		raw, _, err = c.client.Repositories.Get(ctx, owner, repo)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get repository %s/%s: %w", owner, repo, err)
	}

	meta := &model.RepoMeta{
		FullName:    raw.GetFullName(),
		Description: raw.GetDescription(),
		Stars:       raw.GetStargazersCount(),
		OpenIssues:  raw.GetOpenIssuesCount(),
	}
	if o := raw.GetOwner(); o != nil {
		meta.Owner = convertUser(o)
	}
	return meta, nil
}

// Contributors lists repository contributors in contribution order.
func (c *Client) Contributors(ctx context.Context, owner, repo string) ([]model.User, error) {
	var raw []*gh.Contributor
	opts := &gh.ListContributorsOptions{
		ListOptions: gh.ListOptions{PerPage: defaultPerPage},
	}
	err := withRetry(ctx, "list contributors", func() error {
		var err error
		raw, _, err = c.client.Repositories.ListContributors(ctx, owner, repo, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors for %s/%s: %w", owner, repo, err)
	}

	users := make([]model.User, 0, len(raw))
	for _, contributor := range raw {
		users = append(users, model.User{
			Login:     contributor.GetLogin(),
			AvatarURL: contributor.GetAvatarURL(),
			HTMLURL:   contributor.GetHTMLURL(),
		})
	}
	return users, nil
}

func convertIssue(is *gh.Issue) model.Issue {
	issue := model.Issue{
		ID:          is.GetID(),
		Number:      is.GetNumber(),
		Title:       is.GetTitle(),
		State:       is.GetState(),
		Comments:    is.GetComments(),
		PullRequest: is.IsPullRequest(),
		CreatedAt:   is.GetCreatedAt().Time,
		UpdatedAt:   is.GetUpdatedAt().Time,
		HTMLURL:     is.GetHTMLURL(),
	}
	if u := is.GetUser(); u != nil {
		issue.User = convertUser(u)
	}
	if a := is.GetAssignee(); a != nil {
		user := convertUser(a)
		issue.Assignee = &user
	}
	for _, a := range is.Assignees {
		issue.Assignees = append(issue.Assignees, convertUser(a))
	}
	for _, l := range is.Labels {
		issue.Labels = append(issue.Labels, model.Label{
			Name:  l.GetName(),
			Color: l.GetColor(),
		})
	}
	return issue
}

func convertTimelineEvent(ev *gh.Timeline) model.TimelineEvent {
	event := model.TimelineEvent{
		Event:     ev.GetEvent(),
		CreatedAt: ev.GetCreatedAt().Time,
	}
	if a := ev.GetAssignee(); a != nil {
		user := convertUser(a)
		event.Assignee = &user
	}
	if actor := ev.GetActor(); actor != nil {
		user := convertUser(actor)
		event.Actor = &user
	}
	return event
}

func convertUser(u *gh.User) model.User {
	return model.User{
		Login:     u.GetLogin(),
		AvatarURL: u.GetAvatarURL(),
		HTMLURL:   u.GetHTMLURL(),
	}
}
