package models

// ParsedResume — структурированные поля, извлечённые бэкендом из резюме.
type ParsedResume struct {
	ID         int64              `json:"id"`
	FileName   string             `json:"file_name,omitempty"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Phone      string             `json:"phone,omitempty"`
	Summary    string             `json:"summary,omitempty"`
	Text       string             `json:"text,omitempty"`
	Skills     []string           `json:"skills"`
	Experience []ResumeExperience `json:"experience"`
	Projects   []ResumeProject    `json:"projects"`
}

type ResumeExperience struct {
	Company  string `json:"company"`
	Position string `json:"position,omitempty"`
	Duration string `json:"duration,omitempty"`
	Details  string `json:"details,omitempty"`
}

type ResumeProject struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}
