package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"keyword_studio/generator"
	"keyword_studio/publisher"
)

var (
	renderHTML bool
	renderOut  string
)

var renderCmd = &cobra.Command{
	Use:   "render <article.md>",
	Short: "Preview a markdown article in the terminal or as HTML",
	Long: `Renders a generated article. Files that start with the META DESCRIPTION
line are split the same way generated articles are; plain markdown is used as is.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderHTML, "html", false, "emit a standalone HTML page instead of terminal output")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "write output to this file instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	art := loadArticle(string(raw))

	var out string
	if renderHTML {
		out, err = publisher.Document(art)
	} else {
		out, err = renderTerminal(art.Body)
	}
	if err != nil {
		return err
	}
	if renderOut != "" {
		return os.WriteFile(renderOut, []byte(out), 0o644)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// loadArticle accepts both generated article text and plain markdown.
func loadArticle(text string) generator.Article {
	if art, err := generator.ParseArticle(text); err == nil {
		return art
	}
	art := generator.Article{Text: text, Body: strings.TrimSpace(text)}
	if o := publisher.BuildOutline(art.Body); len(o.Headings) > 0 {
		art.Title = o.Headings[0].Text
	}
	return art
}

func renderTerminal(markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}
