package usecases

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// QueueListInput contains the input for the List use case.
type QueueListInput struct {
	GuildID snowflake.ID
}

// QueueListOutput contains a snapshot of the guild queue.
type QueueListOutput struct {
	// Tracks lists the queue head first.
	Tracks   []Track
	LoopMode LoopMode
	MaxSize  int
}

// QueueService handles queue inspection.
type QueueService struct {
	repo domain.GuildStateRepository
}

// NewQueueService creates a new QueueService.
func NewQueueService(repo domain.GuildStateRepository) *QueueService {
	return &QueueService{
		repo: repo,
	}
}

// List returns a snapshot of the queue.
func (q *QueueService) List(input QueueListInput) (*QueueListOutput, error) {
	output := &QueueListOutput{}
	err := q.repo.WithState(input.GuildID, func(state *domain.GuildPlaybackState) error {
		output.Tracks = state.Tracks()
		output.LoopMode = state.LoopMode()
		output.MaxSize = state.MaxSize()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}
