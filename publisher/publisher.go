package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"keyword_studio/generator"
)

// DigestLimit bounds the description derived from the body when the model
// produced none.
const DigestLimit = 155

var (
	md = goldmark.New(goldmark.WithExtensions(extension.GFM))

	placeholderPattern = `\[(?:Insert|Add) (?:an? )?image of ([^\]]+?)(?: here)?\]`
	placeholderRe      = regexp.MustCompile(placeholderPattern)
	placeholderParaRe  = regexp.MustCompile(`<p>\s*` + placeholderPattern + `\s*</p>`)

	documentTmpl = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
</head>
<body>
<article>
{{.Body}}
</article>
</body>
</html>
`))
)

// ErrEmptyArticle is returned when there is nothing to render or export.
var ErrEmptyArticle = errors.New("publisher: article has no body")

// RenderHTML converts article markdown to an HTML fragment. Image placeholders
// such as "[Insert image of a V60 dripper here]" become figure elements.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return expandPlaceholders(buf.String()), nil
}

func expandPlaceholders(html string) string {
	html = placeholderParaRe.ReplaceAllString(html,
		`<figure class="image-placeholder"><figcaption>Image: $1</figcaption></figure>`)
	return placeholderRe.ReplaceAllString(html, `<span class="image-placeholder">Image: $1</span>`)
}

// Document renders a complete HTML page for art.
func Document(art generator.Article) (string, error) {
	body := articleBody(art)
	if strings.TrimSpace(body) == "" {
		return "", ErrEmptyArticle
	}
	fragment, err := RenderHTML(body)
	if err != nil {
		return "", err
	}
	title := art.Title
	if title == "" {
		title = "Article"
	}
	var buf bytes.Buffer
	err = documentTmpl.Execute(&buf, struct {
		Title       string
		Description string
		Body        template.HTML
	}{
		Title:       title,
		Description: description(art),
		Body:        template.HTML(fragment),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Heading is one markdown heading of the article.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Outline summarizes the structure of an article body.
type Outline struct {
	Headings          []Heading `json:"headings"`
	ImagePlaceholders []string  `json:"imagePlaceholders"`
	Tables            int       `json:"tables"`
	Words             int       `json:"words"`
}

// BuildOutline parses markdown and reports its headings, image placeholders,
// tables and word count.
func BuildOutline(markdown string) Outline {
	src := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(src))

	var (
		out   Outline
		words strings.Builder
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock {
			words.WriteByte(' ')
		}
		switch node := n.(type) {
		case *ast.Heading:
			out.Headings = append(out.Headings, Heading{
				Level: node.Level,
				Text:  strings.TrimSpace(inlineText(node, src)),
			})
		case *extast.Table:
			out.Tables++
		case *ast.Paragraph:
			for _, m := range placeholderRe.FindAllStringSubmatch(inlineText(node, src), -1) {
				out.ImagePlaceholders = append(out.ImagePlaceholders, strings.TrimSpace(m[1]))
			}
		case *ast.Text:
			words.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				words.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	out.Words = len(strings.Fields(words.String()))
	return out
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// ExportMeta is the context recorded alongside an exported article.
type ExportMeta struct {
	Keyword string
	Country string
	Date    time.Time
}

// ExportResult lists the files written by Export.
type ExportResult struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

type frontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Keyword     string `yaml:"keyword"`
	Country     string `yaml:"country"`
	Date        string `yaml:"date"`
}

// Publisher writes finished articles to a directory.
type Publisher struct {
	dir    string
	logger *zap.Logger
}

// New returns a Publisher rooted at dir. The directory is created on first export.
func New(dir string, logger *zap.Logger) (*Publisher, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("publisher: export directory required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{dir: dir, logger: logger.Named("publisher")}, nil
}

// Export writes <slug>.md with YAML front matter and <slug>.html.
func (p *Publisher) Export(art generator.Article, meta ExportMeta) (ExportResult, error) {
	body := articleBody(art)
	if strings.TrimSpace(body) == "" {
		return ExportResult{}, ErrEmptyArticle
	}
	if meta.Date.IsZero() {
		meta.Date = time.Now()
	}

	page, err := Document(art)
	if err != nil {
		return ExportResult{}, err
	}
	fm, err := yaml.Marshal(frontMatter{
		Title:       art.Title,
		Description: description(art),
		Keyword:     meta.Keyword,
		Country:     meta.Country,
		Date:        meta.Date.Format("2006-01-02"),
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode front matter: %w", err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return ExportResult{}, err
	}
	name := Slug(art.Title)
	if name == "" {
		name = Slug(meta.Keyword)
	}
	if name == "" {
		name = "article"
	}
	res := ExportResult{
		Markdown: filepath.Join(p.dir, name+".md"),
		HTML:     filepath.Join(p.dir, name+".html"),
	}

	var doc bytes.Buffer
	doc.WriteString("---\n")
	doc.Write(fm)
	doc.WriteString("---\n\n")
	doc.WriteString(strings.TrimSpace(body))
	doc.WriteString("\n")
	if err := os.WriteFile(res.Markdown, doc.Bytes(), 0o644); err != nil {
		return ExportResult{}, err
	}
	if err := os.WriteFile(res.HTML, []byte(page), 0o644); err != nil {
		return ExportResult{}, err
	}
	p.logger.Info("article exported", zap.String("markdown", res.Markdown), zap.String("html", res.HTML))
	return res, nil
}

// Slug turns a title into a lowercase, hyphen-separated file name.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func articleBody(art generator.Article) string {
	if art.Body != "" {
		return art.Body
	}
	return art.Text
}

func description(art generator.Article) string {
	if art.MetaDescription != "" {
		return art.MetaDescription
	}
	return defaultDigest(articleBody(art), DigestLimit)
}

func defaultDigest(markdown string, limit int) string {
	plain := strings.NewReplacer("#", "", "*", "", "|", " ", "`", "").Replace(markdown)
	joined := strings.Join(strings.Fields(plain), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit])
}
