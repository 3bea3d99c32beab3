package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-resume-portfolio/internal/client"
	apierrors "github.com/pribylovaa/go-resume-portfolio/internal/errors"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
)

// Section — CRUD одного раздела портфолио с типом записи T.
type Section[T any] struct {
	s    Sender
	name models.Section
	path string
}

// NewSection — раздел name под базовым путём base (/portfolio/ -> /portfolio/<name>/).
func NewSection[T any](s Sender, base string, name models.Section) *Section[T] {
	return &Section[T]{
		s:    s,
		name: name,
		path: strings.TrimRight(base, "/") + "/" + string(name) + "/",
	}
}

func (sec *Section[T]) Name() models.Section { return sec.name }

func (sec *Section[T]) List(ctx context.Context) ([]T, error) {
	const op = "internal/api/Section.List"

	resp, err := sec.s.Send(ctx, &client.Request{Method: http.MethodGet, Path: sec.path})
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, sec.name, err)
	}

	out, err := decodeList[T](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, sec.name, err)
	}

	return out, nil
}

func (sec *Section[T]) Create(ctx context.Context, item T) (T, error) {
	const op = "internal/api/Section.Create"

	var out T
	if err := sec.s.JSON(ctx, http.MethodPost, sec.path, item, &out); err != nil {
		return out, fmt.Errorf("%s: %s: %w", op, sec.name, err)
	}

	return out, nil
}

func (sec *Section[T]) Update(ctx context.Context, id int64, item T) (T, error) {
	const op = "internal/api/Section.Update"

	var out T
	if err := sec.s.JSON(ctx, http.MethodPut, itemPath(sec.path, id), item, &out); err != nil {
		return out, fmt.Errorf("%s: %s: %w", op, sec.name, err)
	}

	return out, nil
}

func (sec *Section[T]) Delete(ctx context.Context, id int64) error {
	const op = "internal/api/Section.Delete"

	if err := sec.s.JSON(ctx, http.MethodDelete, itemPath(sec.path, id), nil, nil); err != nil {
		return fmt.Errorf("%s: %s: %w", op, sec.name, err)
	}

	return nil
}

// Portfolio — все разделы портфолио.
type Portfolio struct {
	s    Sender
	base string

	Projects       *Section[models.Project]
	Skills         *Section[models.Skill]
	Experience     *Section[models.Experience]
	Education      *Section[models.Education]
	Certifications *Section[models.Certification]
	Publications   *Section[models.Publication]
	Patents        *Section[models.Patent]
	Awards         *Section[models.Award]
	Hobbies        *Section[models.Hobby]
	Contacts       *Section[models.Contact]
	Other          *Section[models.OtherItem]
}

func NewPortfolio(s Sender, base string) *Portfolio {
	return &Portfolio{
		s:              s,
		base:           base,
		Projects:       NewSection[models.Project](s, base, models.SectionProjects),
		Skills:         NewSection[models.Skill](s, base, models.SectionSkills),
		Experience:     NewSection[models.Experience](s, base, models.SectionExperience),
		Education:      NewSection[models.Education](s, base, models.SectionEducation),
		Certifications: NewSection[models.Certification](s, base, models.SectionCertifications),
		Publications:   NewSection[models.Publication](s, base, models.SectionPublications),
		Patents:        NewSection[models.Patent](s, base, models.SectionPatents),
		Awards:         NewSection[models.Award](s, base, models.SectionAwards),
		Hobbies:        NewSection[models.Hobby](s, base, models.SectionHobbies),
		Contacts:       NewSection[models.Contact](s, base, models.SectionContacts),
		Other:          NewSection[models.OtherItem](s, base, models.SectionOther),
	}
}

// Raw — раздел по имени с записями как сырой JSON (для CLI и экспорта).
func (p *Portfolio) Raw(name models.Section) (*Section[json.RawMessage], error) {
	if !name.Valid() {
		return nil, fmt.Errorf("internal/api/Portfolio.Raw: %w: unknown section %q", apierrors.ErrInvalidArgument, name)
	}

	return NewSection[json.RawMessage](p.s, p.base, name), nil
}
