package coverletter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pribylovaa/go-resume-portfolio/internal/models"
)

// Contact — блок контактов отправителя в шапке письма.
type Contact struct {
	Name     string
	Email    string
	Phone    string
	LinkedIn string
	GitHub   string
	Website  string
	Location string
}

var (
	reEmail    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	rePhone    = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	reLinkedIn = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/in/[A-Za-z0-9_\-%]+/?`)
	reGitHub   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[A-Za-z0-9\-]+/?`)
	reURL      = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>()"',;]+`)
	reLocLabel = regexp.MustCompile(`(?i)^\s*(?:location|address|based in)\s*[:\-–]\s*(.+?)\s*$`)
	reCityLine = regexp.MustCompile(`^[A-Z][A-Za-z.' \-]+,\s*[A-Z][A-Za-z.' \-]+$`)
)

// Сколько первых строк резюме просматривается в поисках имени и города.
const headerLines = 8

// ExtractContact достаёт контакты из текста резюме эвристиками:
// email, телефон (10-15 цифр), профили LinkedIn/GitHub, первый прочий URL,
// строка с городом и имя (первая строка из 2-4 слов с заглавной буквы).
func ExtractContact(text string) Contact {
	var c Contact

	c.Email = reEmail.FindString(text)

	for _, m := range rePhone.FindAllString(text, -1) {
		if n := countDigits(m); n >= 10 && n <= 15 {
			c.Phone = strings.TrimSpace(m)
			break
		}
	}

	if m := reLinkedIn.FindString(text); m != "" {
		c.LinkedIn = normalizeURL(m)
	}
	if m := reGitHub.FindString(text); m != "" {
		c.GitHub = normalizeURL(m)
	}

	for _, m := range reURL.FindAllString(text, -1) {
		low := strings.ToLower(m)
		if strings.Contains(low, "linkedin.com") || strings.Contains(low, "github.com") {
			continue
		}
		c.Website = normalizeURL(strings.TrimRight(m, "."))
		break
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := reLocLabel.FindStringSubmatch(line); m != nil && c.Location == "" {
			c.Location = m[1]
			continue
		}

		if i >= headerLines {
			continue
		}

		if c.Name == "" && looksLikeName(line) {
			c.Name = line
			continue
		}

		if c.Location == "" && reCityLine.MatchString(line) {
			c.Location = line
		}
	}

	return c
}

// ContactFromUser — контакты из записи пользователя.
func ContactFromUser(u models.User) Contact {
	name := u.FullName()
	if name == u.Email {
		name = ""
	}

	return Contact{Name: name, Email: u.Email}
}

// Merge заполняет пустые поля c значениями из other.
func (c Contact) Merge(other Contact) Contact {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}

	fill(&c.Name, other.Name)
	fill(&c.Email, other.Email)
	fill(&c.Phone, other.Phone)
	fill(&c.LinkedIn, other.LinkedIn)
	fill(&c.GitHub, other.GitHub)
	fill(&c.Website, other.Website)
	fill(&c.Location, other.Location)

	return c
}

// Empty сообщает, нет ли ни одного контакта.
func (c Contact) Empty() bool {
	return c == Contact{}
}

func looksLikeName(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return false
	}

	for _, w := range words {
		r := []rune(w)
		if !unicode.IsUpper(r[0]) {
			return false
		}
		for _, ch := range r {
			if !unicode.IsLetter(ch) && ch != '-' && ch != '\'' && ch != '.' {
				return false
			}
		}
	}

	return true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}

	return n
}

func normalizeURL(u string) string {
	u = strings.TrimRight(u, "/")
	low := strings.ToLower(u)
	if strings.HasPrefix(low, "http://") || strings.HasPrefix(low, "https://") {
		return u
	}

	return "https://" + u
}
