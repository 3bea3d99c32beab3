package coverletter

import (
	"fmt"
	"strings"
)

// Template — оформление письма.
type Template string

const (
	Classic   Template = "classic"
	Modern    Template = "modern"
	Minimal   Template = "minimal"
	Executive Template = "executive"
)

// Templates — доступные оформления.
func Templates() []Template {
	return []Template{Classic, Modern, Minimal, Executive}
}

// ParseTemplate — оформление по имени (без учёта регистра). Пустое имя — Classic.
func ParseTemplate(name string) (Template, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Classic, nil
	}

	for _, t := range Templates() {
		if string(t) == name {
			return t, nil
		}
	}

	return "", fmt.Errorf("unknown template %q", name)
}

// Общие правила печати: A4, без теней и подчёркиваний ссылок,
// абзацы не рвутся между страницами.
const printCSS = `
@page { size: A4; margin: 20mm 18mm; }
* { box-sizing: border-box; }
html, body { margin: 0; padding: 0; }
.letter { max-width: 210mm; margin: 0 auto; }
.body p { margin: 0 0 0.9em; orphans: 3; widows: 3; }
.sender a, .body a { color: inherit; }
@media print {
  body { background: #fff !important; }
  .letter { box-shadow: none !important; margin: 0; padding: 0; }
  a { text-decoration: none; }
  .body p, .closing { page-break-inside: avoid; break-inside: avoid; }
}
`

var styles = map[Template]string{
	Classic: `
body { font-family: Georgia, "Times New Roman", serif; font-size: 11.5pt; color: #222; line-height: 1.5; background: #f4f4f4; }
.letter { background: #fff; padding: 24mm 20mm; box-shadow: 0 1px 4px rgba(0,0,0,.15); }
.sender { text-align: right; margin-bottom: 1.5em; }
.sender .name { font-size: 16pt; font-weight: bold; }
.sender .line { font-size: 10pt; color: #444; }
.date { margin-bottom: 1.2em; }
.recipient { margin-bottom: 1.5em; }
`,
	Modern: `
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 10.5pt; color: #1f2933; line-height: 1.6; background: #eef2f7; }
.letter { background: #fff; padding: 0 0 20mm; box-shadow: 0 2px 12px rgba(15,23,42,.12); }
.sender { background: #1e3a8a; color: #fff; padding: 14mm 18mm 10mm; margin-bottom: 10mm; }
.sender .name { font-size: 22pt; font-weight: 300; letter-spacing: .02em; }
.sender .line { display: inline-block; margin-right: 1.2em; font-size: 9.5pt; opacity: .9; }
.date, .recipient, .body, .closing { padding: 0 18mm; }
.date { color: #52606d; margin-bottom: 1em; }
.recipient { margin-bottom: 1.4em; font-weight: 600; }
@media print { .sender { -webkit-print-color-adjust: exact; print-color-adjust: exact; } }
`,
	Minimal: `
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; font-size: 10.5pt; color: #111; line-height: 1.55; background: #fff; }
.letter { padding: 20mm; }
.sender { border-bottom: 1px solid #ddd; padding-bottom: .8em; margin-bottom: 1.6em; }
.sender .name { font-size: 14pt; font-weight: 600; }
.sender .line { display: inline; font-size: 9.5pt; color: #555; }
.sender .line + .line::before { content: " · "; }
.date { color: #666; margin-bottom: 1em; }
.recipient { margin-bottom: 1.2em; }
`,
	Executive: `
body { font-family: Garamond, "EB Garamond", Georgia, serif; font-size: 12pt; color: #1a1a1a; line-height: 1.45; background: #f7f5f0; }
.letter { background: #fffdf8; padding: 22mm 22mm; border-top: 6px solid #7a5c1e; box-shadow: 0 1px 6px rgba(0,0,0,.18); }
.sender { text-align: center; margin-bottom: 1.8em; }
.sender .name { font-size: 20pt; font-variant: small-caps; letter-spacing: .08em; }
.sender .line { display: inline-block; margin: 0 .6em; font-size: 10pt; color: #5a4a2a; }
.date { text-align: right; margin-bottom: 1.4em; }
.recipient { margin-bottom: 1.6em; }
.closing .signature { font-variant: small-caps; letter-spacing: .05em; }
@media print { .letter { border-top-color: #7a5c1e; -webkit-print-color-adjust: exact; print-color-adjust: exact; } }
`,
}

// CSS — полный набор стилей оформления t.
func CSS(t Template) string {
	return styles[t] + printCSS
}
