// Package rsengine runs deployment pipelines. A pipeline is an ordered
// sequence of conventions applied to a running deployment while the
// deployment target's host-wide lock is held. The outcome of each attempt
// is recorded in the deployment journal unless the attempt suppresses it.
package rsengine

import (
	"context"
	"time"

	"github.com/leafbridge/rootstock/hostmutex"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsevent"
	"github.com/leafbridge/rootstock/rsjournal"
	"github.com/leafbridge/rootstock/rsvariables"
)

// Options holds the dependencies and settings of a deployment engine.
type Options struct {
	// Locks is the lock directory used for host-wide deployment locks.
	Locks hostmutex.Dir

	// Journal is the deployment journal for the host.
	Journal rsjournal.Store

	// Events receives events recorded by the engine.
	Events rsevent.Recorder

	// LockTimeout is how long to wait for the target's deployment lock.
	// A timeout of zero makes a single attempt.
	LockTimeout time.Duration
}

// Engine is responsible for invocation of deployment pipelines.
type Engine struct {
	locks       hostmutex.Dir
	journal     rsjournal.Store
	events      rsevent.Recorder
	lockTimeout time.Duration
}

// NewEngine returns a new deployment engine with the given options.
func NewEngine(opts Options) Engine {
	return Engine{
		locks:       opts.Locks,
		journal:     opts.Journal,
		events:      opts.Events,
		lockTimeout: opts.LockTimeout,
	}
}

// Run executes the given conventions in order against the deployment.
//
// The target's host-wide lock is held for the whole run, including the
// journal update. The first convention error stops the pipeline; later
// conventions do not run. The error is returned unchanged after the
// outcome has been journaled.
func (engine Engine) Run(ctx context.Context, deployment *RunningDeployment, conventions []Convention) error {
	if err := deployment.ID.Validate(); err != nil {
		return err
	}
	if err := deployment.Target.Validate(); err != nil {
		return err
	}
	if deployment.Variables == nil {
		deployment.Variables = rsvariables.NewStore()
	}

	// Acquire the host-wide lock for the deployment target. Holding it
	// across the journal read, the conventions and the journal write is
	// what makes concurrent attempts against one target safe.
	resource := lockResource(deployment)
	waitStarted := time.Now()
	lock, err := engine.locks.Acquire(ctx, resource, engine.lockTimeout)
	if err != nil {
		engine.events.Record(rsdeployevent.LockNotAcquired{
			Deployment: deployment.ID,
			Resource:   resource,
			Timeout:    engine.lockTimeout,
			Err:        err,
		})
		return err
	}
	defer lock.Release()

	engine.events.Record(rsdeployevent.LockAcquired{
		Deployment: deployment.ID,
		Resource:   resource,
		Waited:     time.Since(waitStarted),
	})

	// Record the start of the pipeline.
	engine.events.Record(rsdeployevent.PipelineStarted{
		Deployment:  deployment.ID,
		Target:      deployment.Target,
		PackagePath: deployment.Package.Path,
	})

	// Record the time that the pipeline started.
	started := time.Now()

	// Execute the conventions.
	runErr := func() error {
		// Fingerprint the attempt before any convention runs, unless the
		// caller supplied a fingerprint of its own.
		if deployment.Fingerprint == "" {
			fingerprint, err := rsjournal.ComputeFingerprint(deployment.Package.Path, deployment.Variables.Snapshot())
			if err != nil {
				return err
			}
			deployment.Fingerprint = fingerprint
		}

		// The staged tree is the installed result until a convention says
		// otherwise.
		if deployment.InstallDir == "" {
			deployment.InstallDir = deployment.Staging.Path()
		}

		total := len(conventions)
		for i, convention := range conventions {
			if err := ctx.Err(); err != nil {
				return err
			}
			if deployment.SkipRemaining {
				return nil
			}

			engine.events.Record(rsdeployevent.ConventionStarted{
				Deployment: deployment.ID,
				Convention: convention.Name(),
				Position:   i + 1,
				Total:      total,
			})

			conventionStarted := time.Now()
			err := convention.Execute(ctx, deployment)
			conventionStopped := time.Now()

			engine.events.Record(rsdeployevent.ConventionStopped{
				Deployment: deployment.ID,
				Convention: convention.Name(),
				Position:   i + 1,
				Total:      total,
				Started:    conventionStarted,
				Stopped:    conventionStopped,
				Err:        err,
			})

			if err != nil {
				return err
			}
		}
		return nil
	}()

	// Record the outcome in the journal. A journal failure on the success
	// path fails the run, because the attempt is not durably recorded. A
	// journal failure on the failure path must not mask the error that
	// stopped the pipeline.
	if deployment.SkipJournal {
		engine.events.Record(rsdeployevent.JournalSuppressed{
			Deployment: deployment.ID,
		})
	} else {
		entry := journalEntry(deployment, runErr == nil)
		if err := engine.journal.AddEntry(entry); err != nil {
			engine.events.Record(rsdeployevent.JournalWriteFailed{
				Deployment: deployment.ID,
				Target:     deployment.Target,
				Err:        err,
			})
			if runErr == nil {
				runErr = err
			}
		} else {
			engine.events.Record(rsdeployevent.JournalEntryRecorded{
				Deployment: deployment.ID,
				Target:     deployment.Target,
				Path:       engine.journal.Path(deployment.Target),
				Successful: entry.Successful,
			})
		}
	}

	// Record the time that the pipeline stopped.
	stopped := time.Now()

	// Record the end of the pipeline.
	engine.events.Record(rsdeployevent.PipelineStopped{
		Deployment: deployment.ID,
		Target:     deployment.Target,
		Started:    started,
		Stopped:    stopped,
		Skipped:    deployment.SkipRemaining && runErr == nil,
		Err:        runErr,
	})

	return runErr
}

// lockResource returns the name of the host-wide lock resource for the
// deployment's target.
func lockResource(deployment *RunningDeployment) string {
	return "deploy:" + deployment.Target.Key()
}

// journalEntry builds the journal entry for a finished attempt.
func journalEntry(deployment *RunningDeployment, successful bool) rsjournal.Entry {
	return rsjournal.Entry{
		ID:            deployment.ID,
		Target:        deployment.Target,
		PackagePath:   deployment.Package.Path,
		PackageHashes: deployment.Package.Hashes,
		Fingerprint:   deployment.Fingerprint,
		InstallDir:    deployment.InstallDir,
		Files:         deployment.Files(),
		Directories:   deployment.Directories(),
		Successful:    successful,
		Recorded:      time.Now().UTC(),
	}
}
