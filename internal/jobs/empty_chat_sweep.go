package jobs

import (
	"context"
	"fmt"
	"time"

	"estate_marketplace_backend/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// EmptyChatSweepGrace keeps chats opened less than this long ago, so a chat
// created right before its first message is not swept.
const EmptyChatSweepGrace = 24 * time.Hour

// ChatSweeper removes chats without messages.
type ChatSweeper interface {
	SweepEmptyChats(ctx context.Context, idleFor time.Duration) (int, error)
}

// EmptyChatSweepJob periodically deletes chats left without messages, e.g. when
// a bulk message delete was interrupted before the chat itself was removed.
type EmptyChatSweepJob struct {
	chats         ChatSweeper
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

func NewEmptyChatSweepJob(chats ChatSweeper, logger *zap.Logger, cfg *config.Config) *EmptyChatSweepJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))
	return &EmptyChatSweepJob{
		chats:         chats,
		logger:        logger.Named("EmptyChatSweepJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *EmptyChatSweepJob) SetupAndStart() error {
	jobSpec := j.cfg.EmptyChatSweepSchedule
	if jobSpec == "" {
		j.logger.Warn("Empty chat sweep schedule not defined (EMPTY_CHAT_SWEEP_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule empty chat sweep", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Empty chat sweep scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *EmptyChatSweepJob) runJob() {
	j.logger.Info("Starting empty chat sweep run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := j.chats.SweepEmptyChats(ctx, EmptyChatSweepGrace)
	if err != nil {
		j.logger.Error("Empty chat sweep run failed", zap.Int("chats_removed", removed), zap.Error(err))
		return
	}
	j.logger.Info("Empty chat sweep run completed", zap.Int("chats_removed", removed))
}

// Stop gracefully stops the cron scheduler.
func (j *EmptyChatSweepJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping empty chat sweep scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Empty chat sweep scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Empty chat sweep scheduler stop timed out.")
	}
}

// cronLogger adapts zap.Logger to cron.Logger.
type cronLogger struct {
	zl *zap.Logger
}

func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.fields(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	cl.zl.Error(msg, append(cl.fields(keysAndValues...), zap.Error(err))...)
}

func (cl *cronLogger) fields(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, "MISSING_VALUE"))
		}
	}
	return fields
}
