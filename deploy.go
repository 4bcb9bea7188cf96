package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leafbridge/rootstock/hostmutex"
	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsengine"
	"github.com/leafbridge/rootstock/rsevent"
	"github.com/leafbridge/rootstock/rsjournal"
	"github.com/leafbridge/rootstock/rsvariables"
	"github.com/leafbridge/rootstock/stagingfs"
)

// DeployCmd deploys a software package according to the Rootstock
// conventions.
type DeployCmd struct {
	Package            string        `kong:"required,name='package',help='Path to the deployment package file or directory.'"`
	Variables          []string      `kong:"optional,name='variables',help='Path to a variables file. May be given more than once.'"`
	SensitiveVariables string        `kong:"optional,name='sensitive-variables',help='Path to an encrypted variables file.'"`
	SensitivePassword  string        `kong:"optional,name='sensitive-password',env='ROOTSTOCK_SENSITIVE_PASSWORD',help='Password that decrypts the sensitive variables file.'"`
	SensitiveSalt      string        `kong:"optional,name='sensitive-salt',env='ROOTSTOCK_SENSITIVE_SALT',help='Salt for the sensitive variables password.'"`
	SensitiveIdentity  string        `kong:"optional,name='sensitive-identity',help='Path to an age identity file that decrypts the sensitive variables file.'"`
	OutputVariables    string        `kong:"optional,name='output-variables',help='Write the final deployment variables to this path after the run.'"`
	Force              bool          `kong:"optional,name='force',help='Deploy even when the target is already current.'"`
	LockTimeout        time.Duration `kong:"optional,name='lock-timeout',default='2m',help='How long to wait for the deployment lock.'"`
	Home               string        `kong:"optional,name='home',env='ROOTSTOCK_HOME',default='/var/lib/rootstock',help='Path of the rootstock home directory.'"`
	JournalSuppressed  bool          `kong:"optional,name='journal-suppressed',help='Do not record this deployment in the journal.'"`
	Verbose            bool          `kong:"optional,name='verbose',short='v',help='Show debug messages on the command line.'"`
	LogJSON            bool          `kong:"optional,name='log-json',help='Write events as JSON log records instead of plain text.'"`
}

// Run executes the rootstock deploy command.
func (cmd DeployCmd) Run(ctx context.Context) error {
	// Load the deployment variables.
	variables, err := rsvariables.Load(rsvariables.Sources{
		Files:         cmd.Variables,
		SensitiveFile: cmd.SensitiveVariables,
		Password:      cmd.SensitivePassword,
		Salt:          cmd.SensitiveSalt,
		IdentityFile:  cmd.SensitiveIdentity,
	})
	if err != nil {
		return err
	}

	// Derive the deployment target from the variables.
	target, err := targetFromVariables(variables)
	if err != nil {
		return err
	}

	// Open the deployment package.
	pkg, err := stagingfs.OpenPackage(cmd.Package)
	if err != nil {
		return err
	}
	defer pkg.Close()

	// Select an event recorder.
	recorder := rsevent.Recorder{Handler: eventHandler(cmd.Verbose, cmd.LogJSON)}

	// Prepare the rootstock home directory and the stores within it.
	if err := os.MkdirAll(cmd.Home, 0o755); err != nil {
		return fmt.Errorf("failed to create the rootstock home directory: %w", err)
	}

	locks, err := hostmutex.OpenDir(filepath.Join(cmd.Home, "locks"))
	if err != nil {
		return err
	}

	journal, err := rsjournal.OpenStore(filepath.Join(cmd.Home, "journal"))
	if err != nil {
		return err
	}

	// Open a staging directory for this deployment attempt.
	id := rsdeploy.NewDeploymentID()
	staging, err := stagingfs.OpenDeployment(cmd.Home, id)
	if err != nil {
		return err
	}
	defer staging.Close()

	// Prepare a deployment engine and the standard pipeline.
	engine := rsengine.NewEngine(rsengine.Options{
		Locks:       locks,
		Journal:     journal,
		Events:      recorder,
		LockTimeout: cmd.LockTimeout,
	})

	pipeline := rsengine.BuildDeploymentPipeline(rsengine.PipelineOptions{
		Journal: journal,
		Events:  recorder,
	})

	deployment := rsengine.RunningDeployment{
		ID:          id,
		Target:      target,
		Package:     pkg.Info(),
		Staging:     staging,
		Variables:   variables,
		Force:       cmd.Force,
		SkipJournal: cmd.JournalSuppressed,
	}

	// Run the deployment pipeline.
	runErr := engine.Run(ctx, &deployment, pipeline)

	// Write out the final variables when requested. The run stamps
	// per-invocation variables and its scripts may have set output
	// variables, so the export happens after the run, even a failed one.
	if cmd.OutputVariables != "" {
		if err := exportVariables(variables, cmd.OutputVariables); err != nil && runErr == nil {
			runErr = err
		}
	}

	return runErr
}

// targetFromVariables builds the deployment target from the recognized
// target variables. The machine defaults to the local host name.
func targetFromVariables(variables *rsvariables.Store) (rsdeploy.TargetID, error) {
	target := rsdeploy.TargetID{
		Environment: variables.Value(rsdeploy.VariableEnvironment),
		Project:     variables.Value(rsdeploy.VariableProject),
		Tenant:      variables.Value(rsdeploy.VariableTenant),
		Machine:     variables.Value(rsdeploy.VariableMachine),
	}
	if target.Machine == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return rsdeploy.TargetID{}, fmt.Errorf("failed to determine the local host name: %w", err)
		}
		target.Machine = hostname
		variables.Set(rsdeploy.VariableMachine, hostname)
	}
	if err := target.Validate(); err != nil {
		return rsdeploy.TargetID{}, err
	}
	return target, nil
}

// exportVariables writes the deployment variables to the given path.
func exportVariables(variables *rsvariables.Store, path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create the variables output file: %w", err)
	}
	if err := variables.Export(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// eventHandler selects an event handler for command line invocations.
func eventHandler(verbose, logJSON bool) rsevent.Handler {
	min := slog.LevelInfo
	if verbose {
		min = slog.LevelDebug
	}
	if logJSON {
		return rsevent.LoggedHandler{
			Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: min}),
		}
	}
	return rsevent.NewBasicHandler(os.Stdout, min)
}
