package export

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Renderer — печать HTML в PDF.
type Renderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// Uploader — выгрузка готового файла; возвращает ссылку на него.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Result — итог экспорта письма.
type Result struct {
	PDF []byte
	Key string
	URL string
}

// Exporter печатает письмо и, если задан Uploader, выгружает PDF.
type Exporter struct {
	renderer Renderer
	uploader Uploader
	now      func() time.Time
}

// New; up может быть nil — тогда выгрузка не выполняется.
func New(r Renderer, up Uploader) *Exporter {
	return &Exporter{renderer: r, uploader: up, now: time.Now}
}

// Export печатает html в PDF. name используется для ключа объекта.
func (e *Exporter) Export(ctx context.Context, name string, html []byte) (Result, error) {
	const op = "internal/export/Export"

	pdf, err := e.renderer.RenderPDF(ctx, html)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	res := Result{PDF: pdf}
	if e.uploader == nil {
		return res, nil
	}

	res.Key = ObjectKey(e.now(), name)
	res.URL, err = e.uploader.Upload(ctx, res.Key, pdf, "application/pdf")
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// defaultName подставляется, когда из имени не получается slug.
const defaultName = "cover-letter"

// ObjectKey — ключ объекта вида 2026/10/<uuid>-<slug>.pdf.
func ObjectKey(at time.Time, name string) string {
	return fmt.Sprintf("%s/%s-%s.pdf", at.UTC().Format("2006/01"), uuid.NewString(), slugOrDefault(name))
}

// FileName — локальное имя PDF: <slug>.pdf, для пустого slug "cover-letter.pdf".
func FileName(name string) string {
	return slugOrDefault(name) + ".pdf"
}

func slugOrDefault(name string) string {
	if slug := Slug(name); slug != "" {
		return slug
	}

	return defaultName
}

// Slug — нижний регистр, латиница/цифры, прочее схлопывается в "-".
func Slug(s string) string {
	var b strings.Builder
	dash := false

	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > 60 {
		out = strings.TrimRight(out[:60], "-")
	}

	return out
}
