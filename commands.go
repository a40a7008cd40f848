package provision

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewCommand creates the Cobra command tree for model management. The
// returned command can be used as a root command or added to a parent
// CLI.
//
// Commands provided:
//   - download [--output DIR] [--version V] [--url URL] [--force] [--quiet]
//   - list [--dir DIR]
//   - verify [--dir DIR]
//   - clean [--dir DIR] [--yes]
//   - info [version|all]
//   - deps
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "kokoro-models",
		Short:        "Manage Kokoro model assets",
		Long:         "Download, verify, and manage Kokoro model weights and voice packs.",
		SilenceUsage: true,
	}

	cmd.AddCommand(downloadCmd())
	cmd.AddCommand(listCmd())
	cmd.AddCommand(verifyCmd())
	cmd.AddCommand(cleanCmd())
	cmd.AddCommand(infoCmd())
	cmd.AddCommand(depsCmd())

	return cmd
}

// defaultOutputDir is the CLI's fallback model directory when no flag is
// given. The server-side resolver has a richer precedence chain; the CLI
// mirrors the documented default.
const defaultOutputDir = "~/models/kokoro"

func downloadCmd() *cobra.Command {
	var (
		output  string
		version string
		url     string
		force   bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download model files",
		Long:  "Download model weights, configuration, and voice packs for a catalog version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			targetDir, err := expandPath(output)
			if err != nil {
				return err
			}

			m, ok := Lookup(version)
			if !ok {
				return fmt.Errorf("%w: %q (known: %s)", ErrUnknownVersion, version, strings.Join(Versions(), ", "))
			}

			var opts []AcquireOption
			if url != "" {
				opts = append(opts, WithBaseURL(url))
			}
			if force {
				opts = append(opts, WithForce())
			}
			if !quiet {
				fmt.Fprintf(out, "Downloading Kokoro %s models to %s\n", version, targetDir)
				opts = append(opts, WithProgress(newProgressPrinter(out)))
			}

			d := NewDownloader()
			outcomes, err := d.Acquire(cmd.Context(), m, targetDir, opts...)
			if !quiet {
				fmt.Fprintln(out)
			}
			if err != nil {
				return err
			}

			if !quiet {
				reportOutcomes(out, outcomes)
				fmt.Fprintln(out, "Models downloaded successfully")
				printInstalledFiles(out, filepath.Join(targetDir, version))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultOutputDir, "Output directory")
	cmd.Flags().StringVarP(&version, "version", "v", DefaultVersion, "Model version to download")
	cmd.Flags().StringVar(&url, "url", "", "Custom download URL (overrides the catalog URL)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Force redownload even if files exist")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

func listCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			modelsDir, err := expandPath(dir)
			if err != nil {
				return err
			}

			entries, err := os.ReadDir(modelsDir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintf(out, "Models directory not found: %s\n", modelsDir)
					return nil
				}
				return err
			}

			fmt.Fprintf(out, "Models in %s:\n\n", modelsDir)

			found := false
			for _, entry := range entries {
				if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "v") {
					continue
				}
				found = true
				printVersionListing(out, modelsDir, entry.Name())
			}

			if !found {
				fmt.Fprintln(out, "No models found.")
				fmt.Fprintln(out, "\nDownload models with: kokoro-models download")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", defaultOutputDir, "Models directory")
	return cmd
}

// printVersionListing prints one installed version's files, configs, and
// voice pack count.
func printVersionListing(out io.Writer, modelsDir, version string) {
	fmt.Fprintf(out, "Version: %s\n", version)
	versionDir := filepath.Join(modelsDir, version)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	entries, _ := os.ReadDir(versionDir)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".pth", ".onnx":
			fmt.Fprintf(tw, "  %s\t%s\n", e.Name(), humanize.Bytes(uint64(info.Size())))
		case ".json":
			fmt.Fprintf(tw, "  %s\tconfig\n", e.Name())
		}
	}
	tw.Flush()

	voiceDir := filepath.Join(modelsDir, "voices", version)
	if voices, err := os.ReadDir(voiceDir); err == nil {
		count := 0
		for _, v := range voices {
			if filepath.Ext(v.Name()) == ".pt" {
				count++
			}
		}
		if count > 0 {
			fmt.Fprintf(out, "  Voice packs: %d found\n", count)
		}
	}
	fmt.Fprintln(out)
}

func verifyCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify model integrity",
		Long:  "Check presence and size of manifest files for every installed version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			modelsDir, err := expandPath(dir)
			if err != nil {
				return err
			}
			if !dirExists(modelsDir) {
				return fmt.Errorf("models directory does not exist: %s: %w", modelsDir, ErrNotSatisfied)
			}

			fmt.Fprintf(out, "Verifying models in %s...\n\n", modelsDir)

			var allIssues []string
			checked := 0
			for _, version := range Versions() {
				m, _ := Lookup(version)
				if !dirExists(filepath.Join(modelsDir, version)) {
					continue
				}
				checked++

				fmt.Fprintf(out, "Checking %s files:\n", version)
				issues := Verify(modelsDir, m, DefaultSizeTolerance)
				issueSet := make(map[string]bool)
				for _, issue := range issues {
					issueSet[strings.SplitN(issue, ":", 2)[0]] = true
				}
				for _, spec := range m.Files {
					if issueSet[spec.Name] {
						fmt.Fprintf(out, "  ✗ %s\n", spec.Name)
					} else {
						fmt.Fprintf(out, "  ✓ %s\n", spec.Name)
					}
				}
				allIssues = append(allIssues, issues...)
			}

			if checked == 0 {
				fmt.Fprintln(out, "Required model files not found")
				fmt.Fprintln(out, "\nDownload models with: kokoro-models download")
				return ErrNotSatisfied
			}

			if len(allIssues) > 0 {
				fmt.Fprintf(out, "\nFound %d issue(s):\n", len(allIssues))
				for _, issue := range allIssues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
				fmt.Fprintln(out, "\nRun 'kokoro-models download --force' to redownload")
				return ErrNotSatisfied
			}

			fmt.Fprintln(out, "\nAll models verified successfully")
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", defaultOutputDir, "Models directory")
	return cmd
}

func cleanCmd() *cobra.Command {
	var (
		dir string
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove temporary and backup artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			modelsDir, err := expandPath(dir)
			if err != nil {
				return err
			}
			if !dirExists(modelsDir) {
				fmt.Fprintf(out, "Models directory not found: %s\n", modelsDir)
				return nil
			}

			files, err := FindTempFiles(modelsDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "No temporary files found to clean.")
				return nil
			}

			var total int64
			fmt.Fprintf(out, "Found %d file(s) to clean:\n", len(files))
			for _, f := range files {
				rel, relErr := filepath.Rel(modelsDir, f.Path)
				if relErr != nil {
					rel = f.Path
				}
				fmt.Fprintf(out, "  - %s (%s)\n", rel, humanize.Bytes(uint64(f.Size)))
				total += f.Size
			}
			fmt.Fprintf(out, "\nTotal space to free: %s\n", humanize.Bytes(uint64(total)))

			if !yes {
				fmt.Fprint(out, "\nDelete these files? [y/N]: ")
				if !confirmPrompt(cmd.InOrStdin()) {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			removed, freed, err := SweepTempFiles(modelsDir, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nDeleted %d file(s), freed %s\n", removed, humanize.Bytes(uint64(freed)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", defaultOutputDir, "Models directory")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [version|all]",
		Short: "Show catalog information",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			version := DefaultVersion
			if len(args) == 1 {
				version = args[0]
			}

			if version == "all" {
				fmt.Fprintln(out, "Available model versions:")
				for _, v := range Versions() {
					fmt.Fprintf(out, "  - %s\n", v)
				}
				return nil
			}

			m, ok := Lookup(version)
			if !ok {
				fmt.Fprintf(out, "No information available for version: %s\n", version)
				fmt.Fprintln(out, "\nAvailable versions:")
				for _, v := range Versions() {
					fmt.Fprintf(out, "  - %s\n", v)
				}
				return ErrUnknownVersion
			}

			fmt.Fprintf(out, "Kokoro model %s:\n\n", version)
			fmt.Fprintln(out, "Model files:")
			var total int64
			for _, f := range m.Files {
				fmt.Fprintf(out, "  - %s (%s)\n", f.Name, humanize.Bytes(uint64(f.Size)))
				total += f.Size
			}
			if m.Voices != nil {
				fmt.Fprintf(out, "\nVoice packs: %d available\n", len(m.Voices.Files))
			}
			fmt.Fprintf(out, "\nTotal download size: ~%s\n", humanize.Bytes(uint64(total)))
			fmt.Fprintf(out, "\nDownload URL: %s\n", m.BaseURL)
			return nil
		},
	}
}

func depsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check system dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Checking system dependencies...")
			results, allClear := ProbeAll(cmd.Context(), true)

			for _, spec := range Dependencies() {
				result := results[spec.Name]
				switch result.Status {
				case StatusFound:
					fmt.Fprintf(out, "  ✓ %s found\n", spec.Name)
				case StatusFoundWithWarning:
					fmt.Fprintf(out, "  ⚠ %s: %s\n", spec.Name, result.Reason)
				case StatusMissing:
					fmt.Fprintf(out, "  ✗ %s\n", spec.Name)
					if spec.Feature != "" {
						fmt.Fprintf(out, "    Feature: %s\n", spec.Feature)
					}
					if hint := spec.InstallHint(); hint != "" {
						fmt.Fprintf(out, "    Install: %s\n", hint)
					}
				}
			}

			if !allClear {
				return ErrDependencyMissing
			}
			return nil
		},
	}
}

// confirmPrompt reads from r and returns true only if the user answers
// yes. Empty input or anything else defaults to no.
func confirmPrompt(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return response == "y" || response == "yes"
	}
	return false
}

// reportOutcomes prints a per-file summary of an acquisition, skipping
// already-satisfied entries when everything was satisfied.
func reportOutcomes(out io.Writer, outcomes []Outcome) {
	satisfied := 0
	for _, o := range outcomes {
		if o.Kind == AlreadySatisfied {
			satisfied++
		}
	}
	if satisfied == len(outcomes) {
		fmt.Fprintln(out, "✓ Models already downloaded")
		return
	}

	for _, o := range outcomes {
		if o.Kind == TransferFailed || o.Kind == VerificationFailed {
			fmt.Fprintf(out, "Warning: %s: %s\n", o.Name, o.Kind)
		}
	}
}

// printInstalledFiles lists the files now present in the version
// directory, sorted by name.
func printInstalledFiles(out io.Writer, versionDir string) {
	entries, err := os.ReadDir(versionDir)
	if err != nil {
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	fmt.Fprintf(out, "\nModel files in %s:\n", versionDir)
	for _, name := range names {
		info, err := os.Stat(filepath.Join(versionDir, name))
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "  - %s (%s)\n", name, humanize.Bytes(uint64(info.Size())))
	}
}

// newProgressPrinter returns a Progress callback that renders a single
// in-place progress bar. Renders are throttled; the callback is safe for
// concurrent use across the voice worker pool.
func newProgressPrinter(out io.Writer) func(Progress) {
	var mu sync.Mutex
	var lastRender time.Time

	return func(p Progress) {
		mu.Lock()
		defer mu.Unlock()

		done := p.BytesTotal > 0 && p.BytesDone >= p.BytesTotal
		if !done && time.Since(lastRender) < 100*time.Millisecond {
			return
		}
		lastRender = time.Now()

		renderProgress(out, p)
	}
}

// renderProgress renders one progress line, overwriting the previous one.
// Without a known total the display degrades to a byte counter rather
// than failing.
func renderProgress(out io.Writer, p Progress) {
	if p.BytesTotal <= 0 {
		fmt.Fprintf(out, "\r\x1b[KDownloading %s: %s", p.Name, humanize.Bytes(uint64(p.BytesDone)))
		return
	}

	pct := float64(p.BytesDone) / float64(p.BytesTotal) * 100

	const barWidth = 30
	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}

	var bar string
	switch {
	case filled >= barWidth:
		bar = strings.Repeat("=", barWidth)
	case filled > 0:
		bar = strings.Repeat("=", filled) + ">" + strings.Repeat(" ", barWidth-filled-1)
	default:
		bar = ">" + strings.Repeat(" ", barWidth-1)
	}

	fmt.Fprintf(out, "\r\x1b[KDownloading %s [%s] %.0f%% (%s / %s)",
		p.Name, bar, pct,
		humanize.Bytes(uint64(p.BytesDone)), humanize.Bytes(uint64(p.BytesTotal)))
}
