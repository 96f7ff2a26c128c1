package ingestion

import "errors"

var (
	// ErrClientRequired is returned when a Moltbook client is not provided.
	ErrClientRequired = errors.New("moltbook client required")

	// ErrAgentRepositoryRequired is returned when an agent repository is not provided.
	ErrAgentRepositoryRequired = errors.New("agent repository required")

	// ErrSubmoltRepositoryRequired is returned when a submolt repository is not provided.
	ErrSubmoltRepositoryRequired = errors.New("submolt repository required")

	// ErrPostRepositoryRequired is returned when a post repository is not provided.
	ErrPostRepositoryRequired = errors.New("post repository required")

	// ErrCommentRepositoryRequired is returned when a comment repository is not provided.
	ErrCommentRepositoryRequired = errors.New("comment repository required")

	// ErrProcessorRequired is returned when a processor is not provided.
	ErrProcessorRequired = errors.New("processor required")
)
