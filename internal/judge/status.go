package judge

import (
	"context"

	"go.uber.org/zap"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/result"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/utils/logger"
)

// StatusUpdate carries intermediate judge progress data.
type StatusUpdate struct {
	TaskID     string
	Status     result.JudgeStatus
	Language   string
	TotalTests int
	DoneTests  int
}

// StatusReporter receives intermediate status updates between stages and
// test cases. Reporting failures never affect the judging outcome.
type StatusReporter interface {
	ReportStatus(ctx context.Context, update StatusUpdate) error
}

func (e *Engine) reportStatus(ctx context.Context, task Task, status result.JudgeStatus, total, done int) {
	if e.reporter == nil {
		return
	}
	update := StatusUpdate{
		TaskID:     task.TaskID,
		Status:     status,
		Language:   task.LanguageID,
		TotalTests: total,
		DoneTests:  done,
	}
	if err := e.reporter.ReportStatus(ctx, update); err != nil {
		logger.Warn(ctx, "status report failed", zap.String("status", string(status)), zap.Error(err))
	}
}
