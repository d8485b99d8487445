// Package registry proposes newly issued tokens to the community token
// registry through a branch/commit/pull-request workflow. Submission is
// best-effort: the token already exists on-chain by the time this runs, so
// failures here must never fail an issuance.
package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/go-github/v66/github"

	"solana-token-api/internal/domain"
)

// Defaults for the Solflare unified token list aggregator.
const (
	DefaultOwner      = "solflare-wallet"
	DefaultRepo       = "utl-aggregator"
	DefaultBaseBranch = "main"
)

// Config configures the registry client.
type Config struct {
	// Token is the hosting API credential. When empty, submission is
	// skipped entirely.
	Token      string
	Owner      string
	Repo       string
	BaseBranch string
	// BaseURL overrides the API endpoint (tests).
	BaseURL string
}

// Client submits token addition proposals.
type Client struct {
	gh         *github.Client
	owner      string
	repo       string
	baseBranch string
}

// New creates a registry client. Without a credential the returned client
// skips every submission and reports no handle.
func New(cfg Config) (*Client, error) {
	c := &Client{
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		baseBranch: cfg.BaseBranch,
	}
	if c.owner == "" {
		c.owner = DefaultOwner
	}
	if c.repo == "" {
		c.repo = DefaultRepo
	}
	if c.baseBranch == "" {
		c.baseBranch = DefaultBaseBranch
	}
	if cfg.Token == "" {
		return c, nil
	}

	gh := github.NewClient(nil).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse registry base URL: %w", err)
		}
		gh.BaseURL = base
	}
	c.gh = gh
	return c, nil
}

// Configured reports whether a credential is available.
func (c *Client) Configured() bool {
	return c != nil && c.gh != nil
}

// ProposeAddition opens a pull request adding the token to the registry and
// returns the pull request URL. Returns an empty handle without error when
// no credential is configured. The branch name carries a random suffix so
// two submissions for the same mint never collide in the remote's history.
func (c *Client) ProposeAddition(ctx context.Context, tok domain.RegistryToken) (string, error) {
	if !c.Configured() {
		return "", nil
	}

	branch := fmt.Sprintf("add-token-%s-%s", tok.Mint, randomSuffix())

	baseRef, _, err := c.gh.Git.GetRef(ctx, c.owner, c.repo, "refs/heads/"+c.baseBranch)
	if err != nil {
		return "", domain.WrapError(domain.KindRegistrySubmission, "resolve base branch", err)
	}

	_, _, err = c.gh.Git.CreateRef(ctx, c.owner, c.repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: baseRef.Object.SHA},
	})
	if err != nil {
		return "", domain.WrapError(domain.KindRegistrySubmission, "create branch", err)
	}

	content, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return "", domain.WrapError(domain.KindRegistrySubmission, "encode token file", err)
	}
	path := fmt.Sprintf("tokens/%s.json", tok.Mint)
	_, _, err = c.gh.Repositories.CreateFile(ctx, c.owner, c.repo, path, &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("Add token %s", tok.Name)),
		Content: content,
		Branch:  github.String(branch),
	})
	if err != nil {
		return "", domain.WrapError(domain.KindRegistrySubmission, "commit token file", err)
	}

	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.String(fmt.Sprintf("Add token: %s", tok.Name)),
		Head:  github.String(branch),
		Base:  github.String(c.baseBranch),
		Body:  github.String(fmt.Sprintf("Adding token %s (%s) to the list.", tok.Name, tok.Mint)),
	})
	if err != nil {
		return "", domain.WrapError(domain.KindRegistrySubmission, "create pull request", err)
	}
	return pr.GetHTMLURL(), nil
}

func randomSuffix() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "0000"
	}
	return hex.EncodeToString(b[:])
}
