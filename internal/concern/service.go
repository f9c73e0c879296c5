package concern

import (
	"context"
	"fmt"
	"strings"

	"concerndesk/internal/roster"
)

// Preferred mentor choices offered on the submission form.
const (
	MentorSrikanth = "Srikanth"
	MentorSanjana  = "Sanjana"
)

// MaxDescriptionLen bounds the free-text concern description.
const MaxDescriptionLen = 500

// ValidationError reports a rejected submission field. No write is attempted
// when validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Inserter is the slice of Repository the service needs.
type Inserter interface {
	Insert(ctx context.Context, c Concern) (Concern, error)
}

// Service builds and persists concern submissions.
type Service struct {
	repo   Inserter
	roster *roster.Roster
}

// NewService creates a submission service over the given repo and roster.
func NewService(repo Inserter, r *roster.Roster) *Service {
	return &Service{repo: repo, roster: r}
}

// Submit validates a submission, copies the denormalized project fields from
// the roster and writes exactly one record. Resubmission after a failed write
// may duplicate a record that did land server-side; at-least-once is the
// accepted contract.
func (s *Service) Submit(ctx context.Context, projectTitle, description, preferredMentor string) (Concern, error) {
	project := s.roster.FindByTitle(projectTitle)
	if project == nil {
		return Concern{}, &ValidationError{Field: "project_title", Reason: "select a project from the roster"}
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Concern{}, &ValidationError{Field: "concern_description", Reason: "description is required"}
	}
	if len(description) > MaxDescriptionLen {
		return Concern{}, &ValidationError{Field: "concern_description", Reason: fmt.Sprintf("description exceeds %d characters", MaxDescriptionLen)}
	}
	if preferredMentor != MentorSrikanth && preferredMentor != MentorSanjana {
		return Concern{}, &ValidationError{Field: "preferred_mentor", Reason: "choose one of the offered mentors"}
	}

	c := Concern{
		GroupNumber:        project.GroupName,
		ProjectTitle:       project.ProjectTitle,
		StudentNames:       project.StudentName,
		MentorName:         project.Mentors,
		ConcernDescription: description,
		PreferredMentor:    preferredMentor,
	}
	stored, err := s.repo.Insert(ctx, c)
	if err != nil {
		return Concern{}, fmt.Errorf("insert concern: %w", err)
	}
	return stored, nil
}
