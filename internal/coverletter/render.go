// coverletter превращает сгенерированное бэкендом письмо (markdown) в
// самостоятельную HTML-страницу, готовую к печати или конвертации в PDF.
package coverletter

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Letter — данные письма.
type Letter struct {
	Markdown  string
	Role      string
	Company   string
	Recipient string
	Sender    Contact
	Date      time.Time
}

// Renderer собирает HTML-страницу письма. Безопасен для конкурентного использования.
type Renderer struct {
	md   goldmark.Markdown
	page *template.Template
}

var (
	reGreeting = regexp.MustCompile(`(?i)^\s*(dear|hello|hi|to whom)\b`)
	reClosing  = regexp.MustCompile(`(?i)\b(sincerely|best regards|kind regards|regards|respectfully|yours truly|best wishes)\s*,?\s*$`)
)

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		// Без html.WithUnsafe: сырой HTML из ответа модели не попадает на страницу.
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	return &Renderer{
		md:   md,
		page: template.Must(template.New("letter").Parse(pageTemplate)),
	}
}

// Markdown конвертирует markdown в безопасный HTML-фрагмент.
func (r *Renderer) Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}

	return template.HTML(buf.String()), nil
}

// Render пишет в w HTML-страницу письма в оформлении t.
func (r *Renderer) Render(w io.Writer, t Template, l Letter) error {
	const op = "internal/coverletter/Render"

	if _, ok := styles[t]; !ok {
		return fmt.Errorf("%s: unknown template %q", op, t)
	}

	text := strings.TrimSpace(strings.ReplaceAll(l.Markdown, "\r\n", "\n"))
	if text == "" {
		return fmt.Errorf("%s: empty letter", op)
	}

	body, err := r.Markdown(text)
	if err != nil {
		return fmt.Errorf("%s: markdown: %w", op, err)
	}

	date := l.Date
	if date.IsZero() {
		date = time.Now()
	}

	recipient := strings.TrimSpace(l.Recipient)
	if recipient == "" {
		recipient = "Hiring Manager"
	}

	title := "Cover Letter"
	if l.Role != "" && l.Company != "" {
		title = fmt.Sprintf("Cover Letter: %s at %s", l.Role, l.Company)
	}

	data := pageData{
		Title:       title,
		Template:    string(t),
		CSS:         template.CSS(CSS(t)),
		Sender:      l.Sender,
		SenderLines: senderLines(l.Sender),
		Date:        date.Format("January 2, 2006"),
		Recipient:   recipient,
		Company:     l.Company,
		Greeting:    !reGreeting.MatchString(text),
		Body:        body,
		Closing:     !hasClosing(text),
	}

	if err := r.page.Execute(w, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RenderString — Render в строку.
func (r *Renderer) RenderString(t Template, l Letter) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, t, l); err != nil {
		return "", err
	}

	return buf.String(), nil
}

type pageData struct {
	Title       string
	Template    string
	CSS         template.CSS
	Sender      Contact
	SenderLines []senderLine
	Date        string
	Recipient   string
	Company     string
	Greeting    bool
	Body        template.HTML
	Closing     bool
}

type senderLine struct {
	Text string
	Href template.URL
}

func senderLines(c Contact) []senderLine {
	var out []senderLine

	if c.Location != "" {
		out = append(out, senderLine{Text: c.Location})
	}
	if c.Phone != "" {
		tel := strings.NewReplacer(" ", "", "(", "", ")", "", "-", "", ".", "").Replace(c.Phone)
		out = append(out, senderLine{Text: c.Phone, Href: template.URL("tel:" + url.PathEscape(tel))})
	}
	if c.Email != "" {
		out = append(out, senderLine{Text: c.Email, Href: template.URL("mailto:" + url.PathEscape(c.Email))})
	}
	// Ссылки профилей всегда приводятся к http(s).
	for _, u := range []string{c.LinkedIn, c.GitHub, c.Website} {
		if u != "" {
			u = normalizeURL(u)
			out = append(out, senderLine{Text: displayURL(u), Href: template.URL(u)})
		}
	}

	return out
}

func displayURL(u string) string {
	for _, p := range []string{"https://", "http://", "www."} {
		if len(u) >= len(p) && strings.EqualFold(u[:len(p)], p) {
			u = u[len(p):]
		}
	}

	return strings.TrimRight(u, "/")
}

// hasClosing — письмо уже заканчивается формулой вежливости (в последних строках).
func hasClosing(text string) bool {
	lines := strings.Split(text, "\n")
	start := len(lines) - 4
	if start < 0 {
		start = 0
	}

	for _, line := range lines[start:] {
		if reClosing.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}

	return false
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body class="tpl-{{.Template}}">
<article class="letter">
<header class="sender">
{{- if .Sender.Name}}
<div class="name">{{.Sender.Name}}</div>
{{- end}}
{{- range .SenderLines}}
<div class="line">{{if .Href}}<a href="{{.Href}}">{{.Text}}</a>{{else}}{{.Text}}{{end}}</div>
{{- end}}
</header>
<div class="date">{{.Date}}</div>
<div class="recipient">{{.Recipient}}{{if .Company}}<br>{{.Company}}{{end}}</div>
<section class="body">
{{- if .Greeting}}
<p>Dear {{.Recipient}},</p>
{{- end}}
{{.Body}}
</section>
{{- if .Closing}}
<footer class="closing">
<p>Sincerely,</p>
<p class="signature">{{if .Sender.Name}}{{.Sender.Name}}{{end}}</p>
</footer>
{{- end}}
</article>
</body>
</html>
`
