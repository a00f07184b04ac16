package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pmezard/go-difflib/difflib"

	"srslint/internal/config"
	"srslint/internal/model"
	"srslint/internal/report"
	"srslint/internal/runner"
	"srslint/internal/srsdoc"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "check",
		short: "Report requirement-tag and test-structure violations",
		usage: "srslint check [root]",
		long: `Scan every C source file under root (default ".") and report
violations: requirement-text drift, wrong tag prefix for the file's role,
missing test tags, misordered arrange/act/assert markers, and deprecated
patterns.

Exits non-zero when any violation is found.
`,
		run: runCheck,
	},
	{
		name:  "fix",
		short: "Apply corrective edits in place",
		usage: "srslint fix [root]",
		long: `Scan like check, then rewrite each file whose findings have a
mechanical correction: drifted tag payloads are replaced with canonical text
(delimiters, prefix token, and padding preserved), direct vld.h includes are
removed, and legacy ENABLE_MOCKS bracketing is rewritten to the umock_c
include pair.
`,
		run: runFix,
	},
	{
		name:  "review",
		short: "Step through proposed fixes interactively",
		usage: "srslint review [root]",
		long: `Scan like fix, but present each file's proposed change as a
unified diff and apply only the ones you accept.

Keys: y apply, n skip, up/down scroll, q quit.
`,
		run: runReview,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "srslint — requirement-tag and test-structure checker for C sources\n\n")
	fmt.Fprintf(w, "Usage:\n  srslint <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'srslint help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "srslint: unknown command %q\n\nRun 'srslint help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'srslint help' for usage.", args[0])
}

// ---------------------------------------------------------------------------
// setup shared by all commands
// ---------------------------------------------------------------------------

func rootArg(args []string) string {
	if len(args) >= 1 {
		return args[0]
	}
	return "."
}

// loadCanon builds the canonical requirement map for root. Documents come
// from the config's requirements list; when none is configured, every
// *_requirements.md under root is used.
func loadCanon(root string, cfg *config.Config) (model.CanonicalMap, error) {
	docs := make([]string, 0, len(cfg.Requirements))
	for _, rel := range cfg.Requirements {
		docs = append(docs, filepath.Join(root, filepath.FromSlash(rel)))
	}
	if len(docs) == 0 {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), "_requirements.md") {
				docs = append(docs, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("find requirement documents: %w", err)
		}
	}

	canon, warnings, err := srsdoc.Load(docs)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}
	return canon, nil
}

func scan(root string, fix bool) (*runner.Summary, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	canon, err := loadCanon(root, cfg)
	if err != nil {
		return nil, err
	}
	return runner.Run(context.Background(), runner.Options{
		Root:  root,
		Cfg:   cfg,
		Canon: canon,
		Fix:   fix,
	})
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func runCheck(args []string) error {
	sum, err := scan(rootArg(args), false)
	if err != nil {
		return err
	}
	fmt.Print(report.Generate(sum, report.Options{}))
	if n := len(sum.Violations()); n > 0 {
		return fmt.Errorf("%d violation(s)", n)
	}
	return nil
}

// ---------------------------------------------------------------------------
// fix
// ---------------------------------------------------------------------------

func runFix(args []string) error {
	root := rootArg(args)
	sum, err := scan(root, true)
	if err != nil {
		return err
	}
	fmt.Print(report.Generate(sum, report.Options{Diffs: true}))

	applied := 0
	for _, fr := range sum.Files {
		if fr.Fixed == nil {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(fr.Path))
		if err := os.WriteFile(path, fr.Fixed, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", fr.Path, err)
		}
		applied++
	}
	fmt.Printf("%d file(s) rewritten\n", applied)
	return nil
}

// ---------------------------------------------------------------------------
// review
// ---------------------------------------------------------------------------

// reviewItem is one file's proposed change.
type reviewItem struct {
	path  string
	diff  string
	fixed []byte
}

// reviewModel steps through proposed fixes one file at a time.
type reviewModel struct {
	items    []reviewItem
	idx      int
	accepted []bool
	vp       viewport.Model
	ready    bool
	done     bool
}

func newReviewModel(items []reviewItem) reviewModel {
	return reviewModel{
		items:    items,
		accepted: make([]bool, len(items)),
	}
}

func (m reviewModel) Init() tea.Cmd { return nil }

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - 2
		}
		m.vp.SetContent(m.items[m.idx].diff)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		case "y":
			m.accepted[m.idx] = true
			return m.next()
		case "n":
			return m.next()
		}
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m reviewModel) next() (tea.Model, tea.Cmd) {
	if m.idx == len(m.items)-1 {
		m.done = true
		return m, tea.Quit
	}
	m.idx++
	if m.ready {
		m.vp.SetContent(m.items[m.idx].diff)
		m.vp.GotoTop()
	}
	return m, nil
}

func (m reviewModel) View() string {
	if m.done || len(m.items) == 0 {
		return ""
	}
	header := fmt.Sprintf("fix %d/%d — %s  (y apply, n skip, q quit)\n", m.idx+1, len(m.items), m.items[m.idx].path)
	if !m.ready {
		return header
	}
	return header + m.vp.View()
}

func runReview(args []string) error {
	root := rootArg(args)
	sum, err := scan(root, true)
	if err != nil {
		return err
	}

	var items []reviewItem
	for _, fr := range sum.Files {
		if fr.Fixed == nil {
			continue
		}
		diff, derr := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(fr.Src)),
			B:        difflib.SplitLines(string(fr.Fixed)),
			FromFile: fr.Path,
			ToFile:   fr.Path + " (fixed)",
			Context:  3,
		})
		if derr != nil {
			return fmt.Errorf("diff %s: %w", fr.Path, derr)
		}
		items = append(items, reviewItem{path: fr.Path, diff: diff, fixed: fr.Fixed})
	}
	if len(items) == 0 {
		fmt.Println("nothing to fix")
		return nil
	}

	m := newReviewModel(items)
	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	final, ok := result.(reviewModel)
	if !ok {
		return fmt.Errorf("review cancelled")
	}

	applied := 0
	for i, item := range items {
		if !final.accepted[i] {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(item.path))
		if err := os.WriteFile(path, item.fixed, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", item.path, err)
		}
		applied++
	}
	fmt.Printf("%d of %d fix(es) applied\n", applied, len(items))
	return nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
