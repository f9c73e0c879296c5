package concern

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Concern is a student-submitted record describing a problem with a project.
// Group, title, students and mentor are copied from the roster at submission
// time, so later roster edits never change historical records.
type Concern struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	GroupNumber        string    `json:"group_number"`
	ProjectTitle       string    `json:"project_title"`
	StudentNames       string    `json:"student_names"`
	MentorName         string    `json:"mentor_name"`
	ConcernDescription string    `json:"concern_description"`
	PreferredMentor    string    `json:"preferred_mentor"`
}

// Repository persists concern records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new concern record and returns it with id and created_at set.
func (r *Repository) Insert(ctx context.Context, c Concern) (Concern, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO project_concerns (id, group_number, project_title, student_names, mentor_name, concern_description, preferred_mentor)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, c.ID, c.GroupNumber, c.ProjectTitle, c.StudentNames, c.MentorName, c.ConcernDescription, c.PreferredMentor)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Concern{}, err
	}
	return c, nil
}

// ListAll returns every concern ordered by creation time descending.
// The id tiebreak keeps the order stable for equal timestamps.
func (r *Repository) ListAll(ctx context.Context) ([]Concern, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, group_number, project_title, student_names, mentor_name, concern_description, preferred_mentor
		FROM project_concerns
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Concern
	for rows.Next() {
		var c Concern
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.GroupNumber, &c.ProjectTitle, &c.StudentNames, &c.MentorName, &c.ConcernDescription, &c.PreferredMentor); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
