package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"crmpush/internal/push"

	"github.com/rs/zerolog"
)

// ProcessPushJob is the task that synchronizes one push job with the CRM.
const ProcessPushJob = "process_push_job"

// PushProcessor is implemented by push.Service.
type PushProcessor interface {
	ProcessJob(ctx context.Context, jobID uint64) (push.SyncResult, error)
}

// RegisterPush binds ProcessPushJob to svc. The task argument is the job id.
func (e *Executor) RegisterPush(svc PushProcessor) {
	e.Register(ProcessPushJob, func(ctx context.Context, arg string) error {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("bad job id %q: %w", arg, err)
		}

		res, err := svc.ProcessJob(ctx, id)
		if errors.Is(err, push.ErrJobNotFound) || errors.Is(err, push.ErrJobNotPending) || errors.Is(err, push.ErrJobBusy) {
			zerolog.Ctx(ctx).Warn().Err(err).Uint64("job_id", id).Msg("push job skipped")
			return nil
		}
		if err != nil {
			return err
		}

		zerolog.Ctx(ctx).Info().
			Uint64("job_id", id).
			Int("created", res.Created).
			Int("updated", res.Updated).
			Msg("push job completed")
		return nil
	})
}

// SchedulePushJob starts processing of a push job in the background.
func (e *Executor) SchedulePushJob(jobID uint64) error {
	return e.Execute(ProcessPushJob, strconv.FormatUint(jobID, 10))
}
