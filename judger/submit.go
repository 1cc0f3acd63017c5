package judger

import (
	"context"

	"github.com/codeg/judge/client"
	"github.com/codeg/judge/types"
	"go.uber.org/zap"
)

// Submit validates the submission and writes its source synchronously, then
// judges it in the background and delivers the result to its callback
// address. A nil error means the submission was accepted: from then on the
// callback receives either the result or a SystemError.
//
// ctx is only used for its values, the background work is not cancelled with
// it.
func (j *Judger) Submit(ctx context.Context, s *types.Submission) error {
	if !j.acquire() {
		return ErrShuttingDown
	}
	if s.CallbackURL == "" {
		j.wg.Done()
		return &ValidationError{Field: "callbackUrl", Reason: "is required"}
	}
	p, err := j.prepare(s, submissionLimit(s))
	if err != nil {
		j.wg.Done()
		return err
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer j.wg.Done()
		r := j.execute(p, nil)
		j.Observer.ObserveSubmission(ModeSubmit, r.Verdict)
		j.deliver(ctx, s, r)
	}()
	return nil
}

// acquire registers an accepted submission unless Shutdown has started
func (j *Judger) acquire() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return false
	}
	j.wg.Add(1)
	return true
}

// deliver posts the result, failures are only visible to operators
func (j *Judger) deliver(ctx context.Context, s *types.Submission, r *types.SubmissionResult) {
	logger := j.Logger.With(zap.String("submission", s.ID), zap.String("callback", s.CallbackURL))
	if j.Client == nil {
		logger.Error("no callback client configured, result dropped", zap.Stringer("verdict", r.Verdict))
		return
	}
	err := j.Client.Deliver(ctx, s.CallbackURL, client.NewPayload(r, s.AuthToken))
	j.Observer.ObserveDelivery(err)
	if err != nil {
		logger.Error("callback delivery failed", zap.Stringer("verdict", r.Verdict), zap.Error(err))
		return
	}
	logger.Debug("callback delivered", zap.Stringer("verdict", r.Verdict))
}

// Shutdown rejects new submissions and waits for accepted ones to be
// delivered or for ctx to expire
func (j *Judger) Shutdown(ctx context.Context) error {
	j.mu.Lock()
	j.closed = true
	j.mu.Unlock()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
