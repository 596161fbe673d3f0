package content

import "encoding/json"

type Resume struct {
	Basics         Basics          `json:"basics"`
	Summary        string          `json:"summary,omitempty"`
	Work           []Work          `json:"work,omitempty"`
	Education      []Education     `json:"education,omitempty"`
	Skills         []Skill         `json:"skills,omitempty"`
	Projects       []Project       `json:"projects,omitempty"`
	Certifications []Certification `json:"certifications,omitempty"`
	Settings       Settings        `json:"settings"`
}

type Basics struct {
	Name     string `json:"name,omitempty"`
	Label    string `json:"label,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

type Work struct {
	Company    string   `json:"company,omitempty"`
	Position   string   `json:"position,omitempty"`
	Location   string   `json:"location,omitempty"`
	StartDate  string   `json:"startDate,omitempty"`
	EndDate    string   `json:"endDate,omitempty"`
	Current    bool     `json:"current,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

type Education struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	GPA         string `json:"gpa,omitempty"`
}

type Skill struct {
	Name     string   `json:"name,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

type Project struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

type Certification struct {
	Name   string `json:"name,omitempty"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// DecodeResume parses résumé content. Sections with the wrong shape are left empty
// instead of failing the whole document.
func DecodeResume(raw json.RawMessage) Resume {
	var r Resume
	if err := json.Unmarshal(raw, &r); err == nil {
		return r
	}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return Resume{}
	}
	decode := func(key string, into any) {
		if v, ok := sections[key]; ok {
			_ = json.Unmarshal(v, into)
		}
	}
	decode("basics", &r.Basics)
	decode("summary", &r.Summary)
	decode("work", &r.Work)
	decode("education", &r.Education)
	decode("skills", &r.Skills)
	decode("projects", &r.Projects)
	decode("certifications", &r.Certifications)
	decode("settings", &r.Settings)
	return r
}
