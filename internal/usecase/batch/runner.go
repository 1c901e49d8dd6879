// Package batch runs servicing sync and statement jobs over a facility set and records a job report.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lendcore/internal/domain/apperr"
	"lendcore/internal/domain/facility"
	"lendcore/internal/domain/jobreport"
	"lendcore/internal/domain/notify"
	"lendcore/internal/usecase/statement"
)

const reasonNoAccountRef = "no servicing account reference"

// ErrNoFacilities is returned by RunTargets when none of the requested facility ids exist.
var ErrNoFacilities = apperr.New(apperr.KindNotFound, "facility_not_found", "facility not found")

type Syncer interface {
	Sync(ctx context.Context, f *facility.Facility) (*facility.Facility, error)
}

type StatementGenerator interface {
	Generate(ctx context.Context, f *facility.Facility) (*statement.Result, error)
}

// Locker guards fleet-wide runs; Acquire returns jobreport.ErrRunning while held.
type Locker interface {
	Acquire(ctx context.Context, name, owner string) error
	Release(ctx context.Context, name, owner string) error
}

type Options struct {
	Environment string
	Channel     string
	// SyncDelay spaces servicing reads to stay under the servicing system's rate limit.
	SyncDelay time.Duration
}

type Runner struct {
	facilities facility.Repository
	reports    jobreport.Repository
	syncer     Syncer
	statements StatementGenerator
	notifier   notify.Notifier
	lock       Locker
	limiter    *rate.Limiter
	opts       Options
	log        *zap.Logger
	now        func() time.Time
}

func NewRunner(
	facilities facility.Repository,
	reports jobreport.Repository,
	syncer Syncer,
	statements StatementGenerator,
	notifier notify.Notifier,
	lock Locker,
	opts Options,
	log *zap.Logger,
) *Runner {
	limit := rate.Inf
	if opts.SyncDelay > 0 {
		limit = rate.Every(opts.SyncDelay)
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Runner{
		facilities: facilities,
		reports:    reports,
		syncer:     syncer,
		statements: statements,
		notifier:   notifier,
		lock:       lock,
		limiter:    rate.NewLimiter(limit, 1),
		opts:       opts,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run processes facilities in order and always persists exactly one report, even when
// the loop aborts on cancellation or panic.
func (r *Runner) Run(ctx context.Context, typ jobreport.Type, facilities []facility.Facility) (rep *jobreport.JobReport, err error) {
	rep, log := r.newReport(typ, len(facilities))
	log.Info("job started", zap.Int("facility_count", len(facilities)))

	defer func() {
		if p := recover(); p != nil {
			rep.Status = jobreport.StatusFailed
			rep.Failure = fmt.Sprintf("panic: %v", p)
			log.Error("job aborted", zap.String("failure", rep.Failure))
		}
		err = r.finish(ctx, rep, log)
	}()

	var loopErr error
	switch typ {
	case jobreport.TypeServicingSync:
		loopErr = r.syncAll(ctx, facilities, rep)
	case jobreport.TypeStatement:
		loopErr = r.statementAll(ctx, facilities, rep)
	default:
		loopErr = fmt.Errorf("unknown job type %q", typ)
	}
	if loopErr != nil {
		rep.Status = jobreport.StatusFailed
		rep.Failure = loopErr.Error()
		log.Error("job aborted", zap.Error(loopErr))
	}
	return rep, nil
}

func (r *Runner) newReport(typ jobreport.Type, count int) (*jobreport.JobReport, *zap.Logger) {
	rep := &jobreport.JobReport{
		RunID:         uuid.NewString(),
		Type:          typ,
		Environment:   r.opts.Environment,
		Status:        jobreport.StatusCompleted,
		StartedAt:     r.now(),
		FacilityCount: count,
		Skipped:       []jobreport.Item{},
		Errors:        []jobreport.Item{},
	}
	return rep, r.log.With(zap.String("job_type", string(typ)), zap.String("run_id", rep.RunID))
}

func (r *Runner) syncAll(ctx context.Context, facilities []facility.Facility, rep *jobreport.JobReport) error {
	linked := make([]*facility.Facility, 0, len(facilities))
	for i := range facilities {
		f := &facilities[i]
		if !f.HasAccountRef() {
			rep.Skipped = append(rep.Skipped, jobreport.Item{FacilityID: f.FacilityID, Reason: reasonNoAccountRef})
			continue
		}
		linked = append(linked, f)
	}

	for _, f := range linked {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := r.syncer.Sync(ctx, f); err != nil {
			r.log.Warn("facility sync failed", zap.String("facility_id", f.FacilityID), zap.Error(err))
			rep.Errors = append(rep.Errors, jobreport.Item{FacilityID: f.FacilityID, Reason: err.Error()})
			continue
		}
		rep.SyncCount++
	}
	return nil
}

func (r *Runner) statementAll(ctx context.Context, facilities []facility.Facility, rep *jobreport.JobReport) error {
	for i := range facilities {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := &facilities[i]
		res, err := r.statements.Generate(ctx, f)
		switch {
		case err != nil:
			r.log.Warn("statement generation failed", zap.String("facility_id", f.FacilityID), zap.Error(err))
			rep.Errors = append(rep.Errors, jobreport.Item{FacilityID: f.FacilityID, Reason: err.Error()})
		case res.Outcome == statement.OutcomeSkipped:
			rep.Skipped = append(rep.Skipped, jobreport.Item{FacilityID: f.FacilityID, Reason: res.Reason})
		default:
			rep.SyncCount++
		}
	}
	return nil
}

func (r *Runner) finish(ctx context.Context, rep *jobreport.JobReport, log *zap.Logger) error {
	rep.FinishedAt = r.now()
	rep.DurationMS = rep.FinishedAt.Sub(rep.StartedAt).Milliseconds()
	rep.SkippedCount = len(rep.Skipped)
	rep.ErrorCount = len(rep.Errors)

	// the report outlives a cancelled run
	ctx = context.WithoutCancel(ctx)
	if err := r.reports.Create(ctx, rep); err != nil {
		log.Error("job report persist failed", zap.Error(err))
		return err
	}
	log.Info("job finished",
		zap.String("status", string(rep.Status)),
		zap.Int("synced", rep.SyncCount),
		zap.Int("skipped", rep.SkippedCount),
		zap.Int("errors", rep.ErrorCount),
		zap.Int64("duration_ms", rep.DurationMS))

	if r.opts.Environment != "development" {
		msg := fmt.Sprintf("[%s] %s job %s: %d facilities, %d ok, %d skipped, %d errors in %s",
			rep.Environment, rep.Type, rep.Status, rep.FacilityCount, rep.SyncCount, rep.SkippedCount, rep.ErrorCount,
			time.Duration(rep.DurationMS)*time.Millisecond)
		if err := r.notifier.Notify(ctx, r.opts.Channel, msg); err != nil {
			log.Warn("job notification failed", zap.Error(err))
		}
	}
	return nil
}

// Targets loads the facilities a job covers: the given ids, or every active facility.
func (r *Runner) Targets(ctx context.Context, facilityIDs []string) ([]facility.Facility, error) {
	if len(facilityIDs) > 0 {
		return r.facilities.ListByFacilityIDs(ctx, facilityIDs)
	}
	return r.facilities.ListActive(ctx)
}

// RunTargets runs typ over Targets synchronously. A failed load still persists a failed
// report, which is returned together with the load error. Explicit ids that match no
// facility return ErrNoFacilities and record nothing.
func (r *Runner) RunTargets(ctx context.Context, typ jobreport.Type, facilityIDs []string) (*jobreport.JobReport, error) {
	fs, err := r.Targets(ctx, facilityIDs)
	if err != nil {
		err = fmt.Errorf("load facilities: %w", err)
		rep, log := r.newReport(typ, 0)
		rep.Status = jobreport.StatusFailed
		rep.Failure = err.Error()
		log.Error("job aborted", zap.Error(err))
		if ferr := r.finish(ctx, rep, log); ferr != nil {
			return rep, errors.Join(err, ferr)
		}
		return rep, err
	}
	if len(facilityIDs) > 0 && len(fs) == 0 {
		return nil, ErrNoFacilities
	}
	return r.Run(ctx, typ, fs)
}

// Start takes the job-type lock and runs the fleet in the background. It returns the lock owner id,
// or jobreport.ErrRunning while another run of the same type holds the lock.
func (r *Runner) Start(ctx context.Context, typ jobreport.Type) (string, error) {
	owner := uuid.NewString()
	if err := r.lock.Acquire(ctx, string(typ), owner); err != nil {
		if errors.Is(err, jobreport.ErrRunning) {
			return "", jobreport.ErrRunning
		}
		return "", fmt.Errorf("acquire job lock: %w", err)
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if err := r.lock.Release(bg, string(typ), owner); err != nil {
				r.log.Warn("job lock release failed", zap.String("job_type", string(typ)), zap.Error(err))
			}
		}()
		if _, err := r.RunTargets(bg, typ, nil); err != nil {
			r.log.Error("background job failed", zap.String("job_type", string(typ)), zap.Error(err))
		}
	}()
	return owner, nil
}

// Recent lists persisted reports, newest first.
func (r *Runner) Recent(ctx context.Context, typ jobreport.Type, limit int) ([]jobreport.JobReport, error) {
	return r.reports.ListRecent(ctx, typ, limit)
}
