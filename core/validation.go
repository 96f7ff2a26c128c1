package core

import "fmt"

// ValidateAgent validates an Agent according to domain rules.
//
// Validation rules:
//   - MoltbookID must not be empty
//   - Name must not be empty
//
// NOT validated:
//   - Id (0 is valid before the store assigns one)
//   - Karma / FollowerCount (the upstream may legitimately report any value)
func ValidateAgent(agent *Agent) error {
	if agent == nil {
		return fmt.Errorf("%w: agent is nil", ErrInvalidAgent)
	}
	if agent.MoltbookID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAgent, ErrEmptyMoltbookID)
	}
	if agent.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAgent, ErrEmptyName)
	}
	return nil
}

// ValidateSubmolt validates a Submolt according to domain rules.
func ValidateSubmolt(submolt *Submolt) error {
	if submolt == nil {
		return fmt.Errorf("%w: submolt is nil", ErrInvalidSubmolt)
	}
	if submolt.MoltbookID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSubmolt, ErrEmptyMoltbookID)
	}
	if submolt.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSubmolt, ErrEmptyName)
	}
	return nil
}

// ValidatePost validates a Post according to domain rules.
//
// NOT validated (resolved or populated during ingestion):
//   - AuthorID / SubmoltID (nil references are tolerated on posts)
//   - Vector / ContentHash (populated by the embedding stage)
func ValidatePost(post *Post) error {
	if post == nil {
		return fmt.Errorf("%w: post is nil", ErrInvalidPost)
	}
	if post.MoltbookID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyMoltbookID)
	}
	return nil
}

// ValidateComment validates a Comment according to domain rules.
//
// Unlike posts, comments require resolved post and author references: the
// ingestion policy skips comments whose authors cannot be resolved rather
// than storing dangling rows.
func ValidateComment(comment *Comment) error {
	if comment == nil {
		return fmt.Errorf("%w: comment is nil", ErrInvalidComment)
	}
	if comment.MoltbookID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidComment, ErrEmptyMoltbookID)
	}
	if comment.PostID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidComment, ErrMissingPostReference)
	}
	if comment.AuthorID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidComment, ErrMissingAuthorReference)
	}
	return nil
}
