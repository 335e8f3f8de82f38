package input

import (
	"context"

	"claim-extractor/internal/domain/entity"
)

type ClaimExtractor interface {
	ClearBlockingObstruction(ctx context.Context) bool
	ExtractQueueListResults(ctx context.Context) ([]entity.QueueItem, error)
	ExtractClaimDetailsFromCurrentVisit(ctx context.Context) (*entity.ClaimDetail, error)
}
