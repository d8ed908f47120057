package bridge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/GontrandL/autoweave-agents/pkg/logx"
)

// GitDeployer commits a manifest set to a GitOps repository on a fresh
// branch. It shells out to the git binary.
type GitDeployer struct {
	authorName  string
	authorEmail string
	logger      *logx.Logger
}

// NewGitDeployer creates a GitOps deployer committing as the given author.
func NewGitDeployer(authorName, authorEmail string) *GitDeployer {
	if authorName == "" {
		authorName = "autoweave"
	}
	if authorEmail == "" {
		authorEmail = "autoweave@localhost"
	}
	return &GitDeployer{
		authorName:  authorName,
		authorEmail: authorEmail,
		logger:      logx.NewLogger("gitops"),
	}
}

// Deploy implements GitOpsDeployer. It clones the repository shallowly,
// writes the manifests under <namespace>/, and pushes a new branch named
// autoweave/deploy-<id>.
func (d *GitDeployer) Deploy(ctx context.Context, set *ManifestSet, repoURL, namespace string) (*DeployResult, error) {
	if set == nil || len(set.Manifests) == 0 {
		return nil, &DeployError{Repository: repoURL, Cause: fmt.Errorf("no manifests to deploy")}
	}
	if repoURL == "" {
		return nil, &DeployError{Repository: repoURL, Cause: fmt.Errorf("no repository URL")}
	}
	if namespace == "" {
		namespace = set.Namespace
	}

	workDir, err := os.MkdirTemp("", "autoweave-deploy-*")
	if err != nil {
		return nil, &DeployError{Repository: repoURL, Cause: err}
	}
	defer os.RemoveAll(workDir)

	cloneDir := filepath.Join(workDir, "repo")
	if _, err := d.git(ctx, workDir, "clone", "--depth", "1", repoURL, cloneDir); err != nil {
		return nil, &DeployError{Repository: repoURL, Cause: err}
	}

	branch := fmt.Sprintf("autoweave/deploy-%s", uuid.NewString()[:8])
	if _, err := d.git(ctx, cloneDir, "checkout", "-b", branch); err != nil {
		return nil, &DeployError{Repository: repoURL, Cause: err}
	}

	targetDir := filepath.Join(cloneDir, namespace)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, &DeployError{Repository: repoURL, Cause: err}
	}
	for _, m := range set.Manifests {
		filename := fmt.Sprintf("%s-%s.yaml", strings.ToLower(m.Kind), m.Name)
		if err := os.WriteFile(filepath.Join(targetDir, filename), []byte(m.Content), 0644); err != nil {
			return nil, &DeployError{Repository: repoURL, Cause: err}
		}
	}

	if _, err := d.git(ctx, cloneDir, "add", namespace); err != nil {
		return nil, &DeployError{Repository: repoURL, Cause: err}
	}
	message := fmt.Sprintf("Deploy %d manifests to namespace %s", len(set.Manifests), namespace)
	if _, err := d.git(ctx, cloneDir, "commit", "-m", message); err != nil {
		return nil, &DeployError{Repository: repoURL, Cause: err}
	}
	if _, err := d.git(ctx, cloneDir, "push", "origin", branch); err != nil {
		return nil, &DeployError{Repository: repoURL, Cause: err}
	}

	revision, err := d.git(ctx, cloneDir, "rev-parse", "HEAD")
	if err != nil {
		return nil, &DeployError{Repository: repoURL, Cause: err}
	}

	d.logger.Info("pushed %d manifests to %s on branch %s", len(set.Manifests), repoURL, branch)
	return &DeployResult{
		Committed: true,
		Revision:  strings.TrimSpace(revision),
		Branch:    branch,
	}, nil
}

func (d *GitDeployer) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+d.authorName,
		"GIT_AUTHOR_EMAIL="+d.authorEmail,
		"GIT_COMMITTER_NAME="+d.authorName,
		"GIT_COMMITTER_EMAIL="+d.authorEmail,
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String(), nil
}
