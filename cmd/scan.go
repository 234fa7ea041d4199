package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toyinlola/patchscan/pkg/cli"
	"github.com/toyinlola/patchscan/pkg/output"
	"github.com/toyinlola/patchscan/pkg/scan"
	"github.com/toyinlola/patchscan/pkg/source"
)

var (
	diffFile   string
	prRef      string
	repoRef    string
	sourceName string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a patch stream and summarize the patches it contains",
	Long: `Scan drains a byte stream through the patch scanner and reports, per
recognized patch body, its dialect, kind, hunk count, and added/removed
line counts.

Scan a local diff file:
  patchscan scan ./path/to/file.diff

Scan stdin:
  cat file.diff | patchscan scan -

Scan a GitHub or Forgejo pull request's diff:
  patchscan scan --pr 42 --repo owner/name
  patchscan scan --pr 42 --repo owner/name --source forgejo`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&diffFile, "diff", "", "path to a patch file to scan (alternative to a positional path)")
	scanCmd.Flags().StringVar(&prRef, "pr", "", "pull/merge request number to fetch a diff for")
	scanCmd.Flags().StringVar(&repoRef, "repo", "", "owner/repo for --pr (defaults to $GITHUB_REPOSITORY)")
	scanCmd.Flags().StringVar(&sourceName, "source", "github", "PR diff source: github|forgejo")
	rootCmd.AddCommand(scanCmd)
}

// summaryFormatter writes a Summary to a writer.
type summaryFormatter interface {
	Format(w io.Writer, summary *output.Summary) error
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var target string
	if len(args) > 0 {
		target = args[0]
	}

	cfg, err := cli.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	r, closeFn, err := openInput(ctx, cfg, target)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	defer closeFn()

	sc := scan.New(r)
	defer sc.Close()

	summary, err := output.Summarize(ctx, sc)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	slog.Info("scan complete", "files", len(summary.Files), "prose_lines", summary.ProseLines, "events", summary.TotalEvents)

	f := selectSummaryFormatter(format)

	var w io.Writer = os.Stdout
	if outputPath != "" {
		file, fileErr := os.Create(outputPath)
		if fileErr != nil {
			return fmt.Errorf("scan: creating output file: %w", fileErr)
		}
		defer file.Close() // best-effort cleanup
		w = file
	}

	if err := f.Format(w, summary); err != nil {
		return fmt.Errorf("scan: writing summary: %w", err)
	}

	return nil
}

// openInput resolves the byte stream to scan, in this priority order: the
// --diff file, a fetched --pr pull-request diff, stdin (target "-" or no
// target), then the positional path. The returned closeFn is always safe
// to call and never nil.
func openInput(ctx context.Context, cfg *cli.Config, target string) (io.Reader, func() error, error) {
	switch {
	case diffFile != "":
		slog.Debug("reading diff from --diff", "path", diffFile)
		f, err := os.Open(diffFile)
		if err != nil {
			return nil, noop, fmt.Errorf("opening --diff file: %w", err)
		}
		return f, f.Close, nil

	case prRef != "":
		return openPullRequestDiff(ctx, cfg, prRef)

	case target == "-" || target == "":
		slog.Debug("reading diff from stdin")
		return os.Stdin, noop, nil

	default:
		slog.Debug("reading diff from path", "path", target)
		f, err := os.Open(target)
		if err != nil {
			return nil, noop, fmt.Errorf("opening %s: %w", target, err)
		}
		return f, f.Close, nil
	}
}

// openPullRequestDiff fetches a PR/MR diff body from the configured source
// (GitHub or Forgejo), using --repo or $GITHUB_REPOSITORY to identify the
// repository.
func openPullRequestDiff(ctx context.Context, cfg *cli.Config, pr string) (io.Reader, func() error, error) {
	owner, repo, err := splitOwnerRepo(repoRef)
	if err != nil {
		return nil, noop, err
	}

	token := os.Getenv(cfg.Source.TokenEnv)

	switch strings.ToLower(sourceName) {
	case "forgejo":
		slog.Info("fetching PR diff from Forgejo", "repo", owner+"/"+repo, "pr", pr)
		src := source.NewForgejoSource(owner, repo, token, cfg.Source.ForgejoURL)
		rc, err := src.OpenPullRequestDiff(ctx, pr)
		if err != nil {
			return nil, noop, err
		}
		return rc, rc.Close, nil

	case "github", "":
		slog.Info("fetching PR diff from GitHub", "repo", owner+"/"+repo, "pr", pr)
		src := source.NewGitHubSource(owner, repo, token, cfg.Source.GitHubAPIURL)
		rc, err := src.OpenPullRequestDiff(ctx, pr)
		if err != nil {
			return nil, noop, err
		}
		return rc, rc.Close, nil

	default:
		return nil, noop, fmt.Errorf("unsupported --source %q, want github|forgejo", sourceName)
	}
}

func splitOwnerRepo(repoRef string) (owner, repo string, err error) {
	if repoRef == "" {
		repoRef = os.Getenv("GITHUB_REPOSITORY")
	}
	parts := strings.SplitN(repoRef, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("--repo must be owner/repo (or set $GITHUB_REPOSITORY), got %q", repoRef)
	}
	return parts[0], parts[1], nil
}

func noop() error { return nil }

// selectSummaryFormatter returns the appropriate summary formatter for the
// given format name.
func selectSummaryFormatter(name string) summaryFormatter {
	switch name {
	case "json":
		return output.NewJSONFormatter()
	default:
		return output.NewTerminalFormatter()
	}
}
