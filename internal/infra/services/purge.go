package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// PurgeService deletes every document of a collection while keeping the
// collection itself.
type PurgeService struct {
	deps Deps
	log  zerolog.Logger
}

func NewPurgeService(deps Deps) *PurgeService {
	return &PurgeService{
		deps: deps,
		log:  deps.Log.With().Str("service", NamePurge).Logger(),
	}
}

func (s *PurgeService) Validate(payload map[string]any) error {
	_, err := requireString(payload, "collection")
	return err
}

func (s *PurgeService) Execute(ctx context.Context, payload map[string]any) (map[string]any, error) {
	ref, _ := payload["collection"].(string)
	coll, err := findCollection(ctx, s.deps.Collections, ref)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", ref, err)
	}

	deleted, err := s.deps.Documents.DeleteByCollection(ctx, nil, coll.ID)
	if err != nil {
		return nil, fmt.Errorf("delete documents: %w", err)
	}

	s.log.Info().Str("collection", coll.ID).Int("deleted", deleted).Msg("collection purged")
	return map[string]any{
		"collection": coll.ID,
		"deleted":    deleted,
	}, nil
}
