package ghclient

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/assignwatch/assignwatch/internal/log"
	"github.com/assignwatch/assignwatch/internal/model"
)

// activityPageLimit caps how many pages of issue history are aggregated per
// user. Two pages of 100 is plenty for a single-repository dashboard view.
const activityPageLimit = 2

// UserActivity aggregates a user's raw issue activity on a repository:
// issues they opened, issues closed while assigned to them, their current
// open assignments, and the average assignment-to-close time.
func (c *Client) UserActivity(ctx context.Context, owner, repo, login string) (*model.RawActivity, error) {
	raw := &model.RawActivity{Login: login}

	assigned, err := c.listIssuesFiltered(ctx, owner, repo, &gh.IssueListByRepoOptions{
		State:    "all",
		Assignee: login,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assigned issues for %s: %w", login, err)
	}

	var closedDurations time.Duration
	for _, is := range assigned {
		if avatar := is.GetAssignee().GetAvatarURL(); avatar != "" && raw.AvatarURL == "" {
			raw.AvatarURL = avatar
		}
		if updated := is.GetUpdatedAt().Time; updated.After(raw.LastActiveAt) {
			raw.LastActiveAt = updated
		}

		if is.GetState() == model.StateClosed {
			raw.IssuesClosed++
			if closed := is.GetClosedAt().Time; !closed.IsZero() {
				closedDurations += closed.Sub(is.GetCreatedAt().Time)
			}
		} else {
			raw.OpenAssigned++
		}
	}
	if raw.IssuesClosed > 0 {
		raw.AvgTimeToClose = closedDurations / time.Duration(raw.IssuesClosed)
	}

	opened, err := c.listIssuesFiltered(ctx, owner, repo, &gh.IssueListByRepoOptions{
		State:   "all",
		Creator: login,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch opened issues for %s: %w", login, err)
	}
	raw.IssuesOpened = len(opened)
	for _, is := range opened {
		if updated := is.GetUpdatedAt().Time; updated.After(raw.LastActiveAt) {
			raw.LastActiveAt = updated
		}
	}

	log.Debug("aggregated user activity",
		"login", login,
		"opened", raw.IssuesOpened,
		"closed", raw.IssuesClosed,
		"open_assigned", raw.OpenAssigned,
	)
	return raw, nil
}

// listIssuesFiltered pages through the repo issue list with the given filter,
// up to activityPageLimit pages.
func (c *Client) listIssuesFiltered(ctx context.Context, owner, repo string, opts *gh.IssueListByRepoOptions) ([]*gh.Issue, error) {
	opts.ListOptions = gh.ListOptions{PerPage: 100}

	var all []*gh.Issue
	for page := 0; page < activityPageLimit; page++ {
		var issues []*gh.Issue
		var resp *gh.Response
		err := withRetry(ctx, "list filtered issues", func() error {
			var err error
			issues, resp, err = c.client.Issues.ListByRepo(ctx, owner, repo, opts)
			return err
		})
		if err != nil {
			return nil, err
		}

		all = append(all, issues...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}
