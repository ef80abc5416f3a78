package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"keyword_studio/generator"
	"keyword_studio/publisher"
	"keyword_studio/workflow"
)

var (
	runCopy   bool
	runExport bool
)

var runCmd = &cobra.Command{
	Use:   "run [niche]",
	Short: "Walk through the workflow interactively in the terminal",
	Long: `Prompts for a niche (or takes it as an argument), then lets you pick a
main keyword, a seed keyword, the expansion sections to include and the
target country before the article is generated and rendered.

Type "restart" at any prompt to start over, or "quit" to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInteractive,
}

func init() {
	runCmd.Flags().BoolVar(&runCopy, "copy", false, "copy the finished article to the clipboard")
	runCmd.Flags().BoolVar(&runExport, "export", false, "write the finished article to export_dir")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, agent, err := newAgent(ctx)
	if err != nil {
		return err
	}
	sess := &terminalSession{
		ctrl:   workflow.NewController(agent, logger),
		in:     bufio.NewReader(cmd.InOrStdin()),
		out:    cmd.OutOrStdout(),
		render: renderTerminal,
	}
	if runCopy {
		sess.copy = clipboard.WriteAll
	}
	if len(args) == 1 {
		sess.niche = args[0]
	}
	if runExport {
		pub, err := publisher.New(cfg.ExportDir, logger)
		if err != nil {
			return err
		}
		sess.pub = pub
	}
	return sess.loop(ctx)
}

var (
	errQuit    = errors.New("quit")
	errRestart = errors.New("restart")
)

// terminalSession drives one workflow.Controller from line-based input.
type terminalSession struct {
	ctrl   *workflow.Controller
	in     *bufio.Reader
	out    io.Writer
	render func(markdown string) (string, error)
	copy   func(text string) error
	pub    *publisher.Publisher

	// niche given on the command line, used once for the first prompt.
	niche string
}

func (s *terminalSession) loop(ctx context.Context) error {
	for {
		st := s.ctrl.Snapshot()
		var err error
		if st.Failure != nil {
			err = s.handleFailure(ctx, st)
		} else {
			err = s.step(ctx, st)
		}
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, errRestart):
			s.ctrl.StartOver()
			fmt.Fprintln(s.out, "\nStarting over.")
		case errors.Is(err, generator.ErrGenerationFailure), errors.Is(err, generator.ErrSchemaMismatch):
			// Stored as the failure overlay; handled on the next pass.
		case errors.Is(err, workflow.ErrEmptyInput), errors.Is(err, workflow.ErrUnknownKeyword):
			fmt.Fprintf(s.out, "  %v\n", err)
		default:
			return err
		}
	}
}

func (s *terminalSession) step(ctx context.Context, st workflow.State) error {
	switch st.Stage {
	case workflow.StageCollectingNiche:
		niche := s.niche
		s.niche = ""
		if niche == "" {
			var err error
			if niche, err = s.ask("Enter your niche or topic: "); err != nil {
				return err
			}
		}
		s.status("Finding main keywords for %q...", niche)
		return s.ctrl.SubmitNiche(ctx, niche)

	case workflow.StageChoosingMainKeyword:
		fmt.Fprintf(s.out, "\nMain keywords for %q:\n", st.Niche)
		for i, kw := range st.MainKeywords {
			fmt.Fprintf(s.out, "  %2d. %s\n", i+1, kw)
		}
		kw, err := s.choose("Pick a main keyword", st.MainKeywords)
		if err != nil {
			return err
		}
		s.status("Building the seed keyword table for %q...", kw)
		return s.ctrl.SelectMainKeyword(ctx, kw)

	case workflow.StageChoosingSeedKeyword:
		fmt.Fprintf(s.out, "\nSeed keywords for %q:\n", st.MainKeyword)
		s.seedTable(st.SeedKeywords)
		names := make([]string, len(st.SeedKeywords))
		for i, r := range st.SeedKeywords {
			names[i] = r.Keyword
		}
		kw, err := s.choose("Pick a seed keyword", names)
		if err != nil {
			return err
		}
		s.status("Expanding %q...", kw)
		return s.ctrl.SelectSeedKeyword(ctx, kw)

	case workflow.StageConfiguringExpansion:
		s.expansionSummary(st)
		sel, err := s.askSelection()
		if err != nil {
			return err
		}
		return s.ctrl.ConfirmSelection(sel)

	case workflow.StageComposing:
		fmt.Fprintf(s.out, "\nIncluded sections: %s\n", strings.Join(st.Selection.Included(), ", "))
		country, err := s.ask("Target country: ")
		if err != nil {
			return err
		}
		s.status("Writing the article for %q...", st.SeedKeyword.Keyword)
		return s.ctrl.ComposeArticle(ctx, country)

	case workflow.StageDone:
		if err := s.deliver(st); err != nil {
			return err
		}
		choice, err := s.ask("\n[c]ompose for another country, [r]estart or [q]uit: ")
		if err != nil {
			return err
		}
		switch strings.ToLower(choice) {
		case "c", "country":
			country, err := s.askNonEmpty("Target country: ")
			if err != nil {
				return err
			}
			s.status("Writing the article for %q...", st.SeedKeyword.Keyword)
			return s.ctrl.ComposeArticle(ctx, country)
		case "r":
			return errRestart
		default:
			return errQuit
		}
	}
	return fmt.Errorf("unexpected stage %s", st.Stage)
}

// handleFailure offers to retry or dismiss the pending failure.
func (s *terminalSession) handleFailure(ctx context.Context, st workflow.State) error {
	fmt.Fprintf(s.out, "\nError: %s\n", st.Failure.Message)
	choice, err := s.ask("[t]ry again, [d]ismiss, [r]estart or [q]uit: ")
	if err != nil {
		return err
	}
	switch strings.ToLower(choice) {
	case "t", "try", "":
		s.status("Retrying...")
		return s.ctrl.Retry(ctx)
	case "d":
		s.ctrl.DismissError()
		return nil
	case "r":
		return errRestart
	default:
		return errQuit
	}
}

func (s *terminalSession) deliver(st workflow.State) error {
	rendered, err := s.render(st.Article.Body)
	if err != nil {
		rendered = st.Article.Body
	}
	fmt.Fprintf(s.out, "\nMeta description: %s\n\n%s\n", st.Article.MetaDescription, rendered)

	o := publisher.BuildOutline(st.Article.Body)
	fmt.Fprintf(s.out, "%d words, %d headings, %d tables, %d image placeholders\n",
		o.Words, len(o.Headings), o.Tables, len(o.ImagePlaceholders))

	if s.copy != nil {
		if err := s.copy(st.Article.Text); err != nil {
			fmt.Fprintf(s.out, "Could not copy to clipboard: %v\n", err)
		} else {
			fmt.Fprintln(s.out, "Article copied to clipboard.")
		}
	}
	if s.pub != nil {
		res, err := s.pub.Export(st.Article, publisher.ExportMeta{Keyword: st.SeedKeyword.Keyword, Country: st.Country})
		if err != nil {
			return fmt.Errorf("export article: %w", err)
		}
		fmt.Fprintf(s.out, "Exported %s and %s\n", res.Markdown, res.HTML)
	}
	return nil
}

func (s *terminalSession) seedTable(rows []generator.SeedKeyword) {
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tKeyword\tVolume\tDifficulty\tCPC\tBlog topic")
	for i, r := range rows {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\t%s\n", i+1, r.Keyword, r.SearchVolume, r.RankingDifficulty, r.CPC, r.BlogPostTopic)
	}
	_ = tw.Flush()
}

func (s *terminalSession) expansionSummary(st workflow.State) {
	exp := st.Expansion
	fmt.Fprintf(s.out, "\nExpansion for %q:\n", st.SeedKeyword.Keyword)
	fmt.Fprintf(s.out, "  FAQs (%d)\n", len(exp.FAQs))
	for _, q := range exp.FAQs {
		fmt.Fprintf(s.out, "    - %s\n", q)
	}
	fmt.Fprintf(s.out, "  Core keywords (%d): %s\n", len(exp.CoreKeywords), strings.Join(exp.CoreKeywords, ", "))
	fmt.Fprintf(s.out, "  Secondary keywords (%d): %s\n", len(exp.SecondaryKeywords), strings.Join(exp.SecondaryKeywords, ", "))
	fmt.Fprintf(s.out, "  Product recommendations (%d)\n", len(exp.ProductRecommendations))
	for _, p := range exp.ProductRecommendations {
		fmt.Fprintf(s.out, "    - %s: %s (%s)\n", p.Name, p.Description, p.Link)
	}
}

func (s *terminalSession) askSelection() (generator.SectionSelection, error) {
	var sel generator.SectionSelection
	for _, item := range []struct {
		label string
		dst   *bool
	}{
		{"FAQs", &sel.FAQs},
		{"core keywords", &sel.CoreKeywords},
		{"secondary keywords", &sel.SecondaryKeywords},
		{"product recommendations", &sel.ProductRecommendations},
	} {
		ans, err := s.ask(fmt.Sprintf("Include %s? [Y/n] ", item.label))
		if err != nil {
			return sel, err
		}
		*item.dst = ans == "" || strings.HasPrefix(strings.ToLower(ans), "y")
	}
	return sel, nil
}

// choose accepts either a 1-based index or the exact option text.
func (s *terminalSession) choose(label string, options []string) (string, error) {
	for {
		ans, err := s.ask(fmt.Sprintf("%s [1-%d]: ", label, len(options)))
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(ans); err == nil {
			if n >= 1 && n <= len(options) {
				return options[n-1], nil
			}
			fmt.Fprintf(s.out, "  %d is out of range\n", n)
			continue
		}
		return ans, nil
	}
}

// ask prints prompt and returns the trimmed reply. "quit" and "restart" map
// to errQuit and errRestart; end of input is treated as quit.
func (s *terminalSession) ask(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", errQuit
		}
		return "", err
	}
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "quit", "exit":
		return "", errQuit
	case "restart":
		return "", errRestart
	}
	return line, nil
}

// askNonEmpty repeats prompt until the reply is not blank.
func (s *terminalSession) askNonEmpty(prompt string) (string, error) {
	for {
		ans, err := s.ask(prompt)
		if err != nil || ans != "" {
			return ans, err
		}
		fmt.Fprintf(s.out, "  %v\n", workflow.ErrEmptyInput)
	}
}

func (s *terminalSession) status(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}
