package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-resume-portfolio/internal/client"
	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	apierrors "github.com/pribylovaa/go-resume-portfolio/internal/errors"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
)

// CoverLetters — генерация и хранение сопроводительных писем.
type CoverLetters struct {
	s        Sender
	list     string
	generate string
}

func NewCoverLetters(s Sender, paths config.PathConfig) *CoverLetters {
	return &CoverLetters{s: s, list: paths.CoverLetters, generate: paths.Generate}
}

// Generate просит бэкенд написать письмо под вакансию. Ответ — markdown
// в поле cover_letter.
func (c *CoverLetters) Generate(ctx context.Context, in models.GenerateCoverLetterRequest) (models.CoverLetter, error) {
	const op = "internal/api/CoverLetters.Generate"

	in.Role = strings.TrimSpace(in.Role)
	in.Company = strings.TrimSpace(in.Company)
	if in.Role == "" || in.Company == "" {
		return models.CoverLetter{}, fmt.Errorf("%s: %w: role and company are required", op, apierrors.ErrInvalidArgument)
	}

	var out models.CoverLetter
	if err := c.s.JSON(ctx, http.MethodPost, c.generate, in, &out); err != nil {
		return models.CoverLetter{}, fmt.Errorf("%s: %w", op, err)
	}

	if strings.TrimSpace(out.Content) == "" {
		return models.CoverLetter{}, fmt.Errorf("%s: empty cover letter in response", op)
	}

	if out.Role == "" {
		out.Role = in.Role
	}
	if out.Company == "" {
		out.Company = in.Company
	}
	if out.ResumeID == 0 {
		out.ResumeID = in.ResumeID
	}

	return out, nil
}

func (c *CoverLetters) List(ctx context.Context) ([]models.CoverLetter, error) {
	const op = "internal/api/CoverLetters.List"

	resp, err := c.s.Send(ctx, &client.Request{Method: http.MethodGet, Path: c.list})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := decodeList[models.CoverLetter](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *CoverLetters) Get(ctx context.Context, id int64) (models.CoverLetter, error) {
	const op = "internal/api/CoverLetters.Get"

	var out models.CoverLetter
	if err := c.s.JSON(ctx, http.MethodGet, itemPath(c.list, id), nil, &out); err != nil {
		return models.CoverLetter{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *CoverLetters) Delete(ctx context.Context, id int64) error {
	const op = "internal/api/CoverLetters.Delete"

	if err := c.s.JSON(ctx, http.MethodDelete, itemPath(c.list, id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
