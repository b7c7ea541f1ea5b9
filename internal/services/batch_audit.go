package services

import (
	"context"

	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/repos"
	"github.com/yungbote/replyloop-backend/internal/types"
)

// BatchAuditService reads the persisted batch-run history for operators.
type BatchAuditService interface {
	Recent(ctx context.Context, limit int) ([]*types.BatchRun, error)
}

type batchAuditService struct {
	log  *logger.Logger
	runs repos.BatchRunRepo
}

func NewBatchAuditService(baseLog *logger.Logger, runs repos.BatchRunRepo) BatchAuditService {
	return &batchAuditService{
		log:  baseLog.With("service", "BatchAuditService"),
		runs: runs,
	}
}

func (b *batchAuditService) Recent(ctx context.Context, limit int) ([]*types.BatchRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return b.runs.Latest(ctx, nil, limit)
}
