// schema проверяет ответы бэкенда на разбор резюме по встроенной JSON-схеме
// до декодирования в models.ParsedResume.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed resume.schema.json
var resumeSchema []byte

// ErrInvalid — документ не соответствует схеме.
var ErrInvalid = errors.New("schema validation failed")

var compiled = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(resumeSchema))
})

// ValidateResume проверяет сырой JSON разобранного резюме.
func ValidateResume(doc []byte) error {
	const op = "internal/schema/ValidateResume"

	s, err := compiled()
	if err != nil {
		return fmt.Errorf("%s: compile: %w", op, err)
	}

	res, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalid, err)
	}

	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}

	return fmt.Errorf("%s: %w: %s", op, ErrInvalid, strings.Join(msgs, "; "))
}
