package export

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	"github.com/pribylovaa/go-resume-portfolio/internal/coverletter"
)

// chromePath — путь к Chrome для интеграционного теста или пустая строка.
func chromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}

	return ""
}

func TestIntegration_RenderPDF(t *testing.T) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	path := chromePath()
	if path == "" {
		t.Skip("chrome is not installed")
	}

	html, err := coverletter.NewRenderer().RenderString(coverletter.Executive, coverletter.Letter{
		Markdown: "I am applying for the **Platform Engineer** role.",
		Company:  "Acme",
		Sender:   coverletter.Contact{Name: "Ada Lovelace", Email: "ada@example.com"},
	})
	require.NoError(t, err)

	r := NewPDFRenderer(config.ExportConfig{ChromePath: path, Timeout: 30 * time.Second})
	pdf, err := r.RenderPDF(context.Background(), []byte(html))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestNewPDFRenderer_DefaultTimeout(t *testing.T) {
	t.Parallel()

	r := NewPDFRenderer(config.ExportConfig{})
	require.Equal(t, 60*time.Second, r.timeout)
	require.Empty(t, r.chromePath)
}
