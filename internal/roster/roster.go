package roster

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed projects.json
var projectsJSON []byte

// Project is one row of the bundled project roster. The roster is read-only
// reference data; there is no write path.
type Project struct {
	SeqNo        int    `json:"S.No"`
	GroupName    string `json:"Group Name"`
	ProjectTitle string `json:"Project Title"`
	RollNumber   string `json:"Roll Number"`
	StudentName  string `json:"Student Name"`
	Mentors      string `json:"Mentor(s)"`
}

// Students splits the comma-separated student names field.
func (p Project) Students() []string {
	parts := strings.Split(p.StudentName, ",")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Roster holds the parsed project list with a title index.
type Roster struct {
	projects []Project
	byTitle  map[string]int
}

// Load parses the embedded roster. Titles must be unique.
func Load() (*Roster, error) {
	return Parse(projectsJSON)
}

// Parse builds a roster from raw JSON. Titles must be unique.
func Parse(data []byte) (*Roster, error) {
	var projects []Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	byTitle := make(map[string]int, len(projects))
	for i, p := range projects {
		if p.ProjectTitle == "" {
			return nil, fmt.Errorf("roster entry %d has no project title", p.SeqNo)
		}
		if _, dup := byTitle[p.ProjectTitle]; dup {
			return nil, fmt.Errorf("duplicate project title %q in roster", p.ProjectTitle)
		}
		byTitle[p.ProjectTitle] = i
	}
	return &Roster{projects: projects, byTitle: byTitle}, nil
}

// All returns every project in roster order.
func (r *Roster) All() []Project {
	out := make([]Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// FindByTitle returns the project with the exact title, or nil.
func (r *Roster) FindByTitle(title string) *Project {
	i, ok := r.byTitle[title]
	if !ok {
		return nil
	}
	p := r.projects[i]
	return &p
}

// Search returns projects whose title or group name contains the query,
// case-insensitively. An empty query returns the full roster.
func (r *Roster) Search(query string) []Project {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return r.All()
	}
	var out []Project
	for _, p := range r.projects {
		if strings.Contains(strings.ToLower(p.ProjectTitle), q) ||
			strings.Contains(strings.ToLower(p.GroupName), q) {
			out = append(out, p)
		}
	}
	return out
}
