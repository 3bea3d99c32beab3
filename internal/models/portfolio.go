package models

// Section — имя раздела портфолио; совпадает с сегментом пути REST-ресурса.
type Section string

const (
	SectionProjects       Section = "projects"
	SectionSkills         Section = "skills"
	SectionExperience     Section = "experience"
	SectionEducation      Section = "education"
	SectionCertifications Section = "certifications"
	SectionPublications   Section = "publications"
	SectionPatents        Section = "patents"
	SectionAwards         Section = "awards"
	SectionHobbies        Section = "hobbies"
	SectionContacts       Section = "contacts"
	SectionOther          Section = "other"
)

// Sections — все разделы в порядке отображения.
var Sections = []Section{
	SectionProjects,
	SectionSkills,
	SectionExperience,
	SectionEducation,
	SectionCertifications,
	SectionPublications,
	SectionPatents,
	SectionAwards,
	SectionHobbies,
	SectionContacts,
	SectionOther,
}

// Valid сообщает, известен ли раздел.
func (s Section) Valid() bool {
	for _, v := range Sections {
		if v == s {
			return true
		}
	}

	return false
}

type Project struct {
	ID           int64    `json:"id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
	RepoURL      string   `json:"repo_url,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
}

type Skill struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Proficiency string `json:"proficiency,omitempty"`
}

type Experience struct {
	ID          int64  `json:"id,omitempty"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description,omitempty"`
}

type Education struct {
	ID          int64  `json:"id,omitempty"`
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field_of_study,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Grade       string `json:"grade,omitempty"`
}

type Certification struct {
	ID           int64  `json:"id,omitempty"`
	Name         string `json:"name"`
	Issuer       string `json:"issuer,omitempty"`
	IssueDate    string `json:"issue_date,omitempty"`
	ExpiryDate   string `json:"expiry_date,omitempty"`
	CredentialID string `json:"credential_id,omitempty"`
	URL          string `json:"url,omitempty"`
}

type Publication struct {
	ID        int64    `json:"id,omitempty"`
	Title     string   `json:"title"`
	Publisher string   `json:"publisher,omitempty"`
	Date      string   `json:"date,omitempty"`
	Authors   []string `json:"authors,omitempty"`
	URL       string   `json:"url,omitempty"`
}

type Patent struct {
	ID       int64  `json:"id,omitempty"`
	Title    string `json:"title"`
	Number   string `json:"patent_number,omitempty"`
	Status   string `json:"status,omitempty"`
	FiledOn  string `json:"filing_date,omitempty"`
	IssuedOn string `json:"issue_date,omitempty"`
	URL      string `json:"url,omitempty"`
}

type Award struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Issuer      string `json:"issuer,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

type Hobby struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Contact struct {
	ID    int64  `json:"id,omitempty"`
	Kind  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// OtherItem — произвольная запись раздела "other".
type OtherItem struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}
