package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pribylovaa/go-resume-portfolio/internal/client"
	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	apierrors "github.com/pribylovaa/go-resume-portfolio/internal/errors"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
	"github.com/pribylovaa/go-resume-portfolio/internal/schema"
)

// Максимальный размер загружаемого резюме.
const maxResumeSize = 10 << 20

// Допустимые расширения файлов резюме.
var resumeExts = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".txt":  {},
}

// Resumes — загрузка резюме на разбор и работа с результатами.
type Resumes struct {
	s      Sender
	list   string
	upload string
}

func NewResumes(s Sender, paths config.PathConfig) *Resumes {
	return &Resumes{s: s, list: paths.Resumes, upload: paths.ResumeUpload}
}

// Upload отправляет файл multipart-формой (поле "file") и возвращает
// разобранное резюме. Ответ проверяется по JSON-схеме до декодирования.
func (r *Resumes) Upload(ctx context.Context, filename string, src io.Reader) (models.ParsedResume, error) {
	const op = "internal/api/Resumes.Upload"

	name := filepath.Base(filename)
	if _, ok := resumeExts[strings.ToLower(filepath.Ext(name))]; !ok {
		return models.ParsedResume{}, fmt.Errorf("%s: %w: unsupported file type %q", op, apierrors.ErrInvalidArgument, filepath.Ext(name))
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return models.ParsedResume{}, fmt.Errorf("%s: %w", op, err)
	}

	n, err := io.Copy(part, io.LimitReader(src, maxResumeSize+1))
	if err != nil {
		return models.ParsedResume{}, fmt.Errorf("%s: read file: %w", op, err)
	}
	if n > maxResumeSize {
		return models.ParsedResume{}, fmt.Errorf("%s: %w: file exceeds %d bytes", op, apierrors.ErrInvalidArgument, maxResumeSize)
	}

	if err := mw.Close(); err != nil {
		return models.ParsedResume{}, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := r.s.Send(ctx, &client.Request{
		Method:      http.MethodPost,
		Path:        r.upload,
		Body:        buf.Bytes(),
		ContentType: mw.FormDataContentType(),
	})
	if err != nil {
		return models.ParsedResume{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := schema.ValidateResume(resp.Body); err != nil {
		return models.ParsedResume{}, fmt.Errorf("%s: %w", op, err)
	}

	var out models.ParsedResume
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return models.ParsedResume{}, fmt.Errorf("%s: decode: %w", op, err)
	}

	return out, nil
}

func (r *Resumes) List(ctx context.Context) ([]models.ParsedResume, error) {
	const op = "internal/api/Resumes.List"

	resp, err := r.s.Send(ctx, &client.Request{Method: http.MethodGet, Path: r.list})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := decodeList[models.ParsedResume](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (r *Resumes) Get(ctx context.Context, id int64) (models.ParsedResume, error) {
	const op = "internal/api/Resumes.Get"

	var out models.ParsedResume
	if err := r.s.JSON(ctx, http.MethodGet, itemPath(r.list, id), nil, &out); err != nil {
		return models.ParsedResume{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (r *Resumes) Delete(ctx context.Context, id int64) error {
	const op = "internal/api/Resumes.Delete"

	if err := r.s.JSON(ctx, http.MethodDelete, itemPath(r.list, id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
