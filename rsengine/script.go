package rsengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/leafbridge/rootstock/internal/syncwriter"
	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsevent"
	"github.com/leafbridge/rootstock/rsvariables"
)

// scriptConvention runs the scripts of a single deployment phase. Within a
// phase, scripts run in three layers: compiled-in feature hooks first, then
// scripts configured through the phase variable, then scripts embedded in
// the package itself. A phase with no scripts in any layer is a no-op.
type scriptConvention struct {
	phase    rsdeploy.Phase
	features []FeatureScript
	events   rsevent.Recorder
}

func (c scriptConvention) Name() string {
	return string(c.phase) + "-scripts"
}

func (c scriptConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	runner := scriptRunner{deployment: deployment, phase: c.phase, events: c.events}

	// Compiled-in feature hooks.
	for _, hook := range c.features {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runner.runFeature(ctx, hook); err != nil {
			return err
		}
	}

	// Scripts configured through the phase variable.
	commands, err := configuredScripts(deployment.Variables, c.phase)
	if err != nil {
		return err
	}
	for _, argv := range commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runner.runCommand(ctx, rsdeploy.LayerConfigured, strings.Join(argv, " "), argv); err != nil {
			return err
		}
	}

	// Scripts embedded in the package.
	return runner.runEmbedded(ctx)
}

// configuredScripts returns the commands held by the phase's script
// variable. The variable holds a JSON array of commands, each an argv
// array. An absent or empty variable yields no commands.
func configuredScripts(variables *rsvariables.Store, phase rsdeploy.Phase) ([][]string, error) {
	value := variables.Value(phase.ScriptVariable())
	if value == "" {
		return nil, nil
	}

	var commands [][]string
	if err := json.Unmarshal([]byte(value), &commands); err != nil {
		return nil, fmt.Errorf("the \"%s\" variable does not hold a JSON array of commands: %w", phase.ScriptVariable(), err)
	}
	for i, argv := range commands {
		if len(argv) == 0 || argv[0] == "" {
			return nil, fmt.Errorf("the \"%s\" variable holds an empty command at position %d", phase.ScriptVariable(), i+1)
		}
	}
	return commands, nil
}

// scriptRunner executes the scripts of one phase against a deployment.
type scriptRunner struct {
	deployment *RunningDeployment
	phase      rsdeploy.Phase
	events     rsevent.Recorder
}

// runFeature executes a compiled-in feature hook.
func (r scriptRunner) runFeature(ctx context.Context, hook FeatureScript) error {
	r.events.Record(rsdeployevent.ScriptStarted{
		Deployment: r.deployment.ID,
		Phase:      r.phase,
		Layer:      rsdeploy.LayerFeature,
		Name:       hook.Name,
	})

	started := time.Now()
	err := hook.Run(ctx, r.deployment)
	stopped := time.Now()

	r.events.Record(rsdeployevent.ScriptStopped{
		Deployment: r.deployment.ID,
		Phase:      r.phase,
		Layer:      rsdeploy.LayerFeature,
		Name:       hook.Name,
		Started:    started,
		Stopped:    stopped,
		Err:        err,
	})

	if err != nil {
		return fmt.Errorf("the \"%s\" script failed: %w", hook.Name, err)
	}
	return nil
}

// runCommand executes a script as a child process. The combined output of
// the script is echoed to the console and captured for the event record.
func (r scriptRunner) runCommand(ctx context.Context, layer rsdeploy.ScriptLayer, name string, argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return fmt.Errorf("the %s phase contains an empty script command", r.phase)
	}

	// Check for cancellation before starting the command.
	if err := ctx.Err(); err != nil {
		return err
	}

	// Prepare a command that will be terminated when ctx is cancelled,
	// with a grace period to let it close out.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = time.Minute

	// Run the script from the staged deployment.
	if dir := r.deployment.Staging.Path(); dir != "" {
		cmd.Dir = dir
	}

	// Expose the deployment variables to the script.
	cmd.Env = append(os.Environ(), scriptEnvironment(r.deployment.Variables)...)

	// Capture the combined output while echoing it to the console.
	var output syncwriter.Writer
	cmd.Stdout = io.MultiWriter(os.Stdout, &output)
	cmd.Stderr = io.MultiWriter(os.Stderr, &output)

	// Record the start of the script.
	r.events.Record(rsdeployevent.ScriptStarted{
		Deployment: r.deployment.ID,
		Phase:      r.phase,
		Layer:      layer,
		Name:       name,
	})

	started := time.Now()
	err := cmd.Run()
	stopped := time.Now()

	// Record the end of the script.
	r.events.Record(rsdeployevent.ScriptStopped{
		Deployment: r.deployment.ID,
		Phase:      r.phase,
		Layer:      layer,
		Name:       name,
		Output:     output.String(),
		Started:    started,
		Stopped:    stopped,
		Err:        err,
	})

	if err != nil {
		return fmt.Errorf("the \"%s\" script failed: %w", name, err)
	}
	return nil
}

// runEmbedded executes the scripts carried within the extracted package,
// found by their conventional names.
func (r scriptRunner) runEmbedded(ctx context.Context) error {
	// Without a staging directory there is no package tree to search.
	if r.deployment.Staging.Path() == "" {
		return nil
	}

	// Shell script.
	shell := r.phase.EmbeddedScriptPath(".sh")
	fi, err := r.deployment.Staging.Stat(shell)
	switch {
	case err == nil && fi.Mode().IsRegular():
		command := filepath.Join(r.deployment.Staging.Path(), filepath.FromSlash(shell))
		if err := r.runCommand(ctx, rsdeploy.LayerEmbedded, shell, []string{"/bin/sh", command}); err != nil {
			return err
		}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return err
	}

	// JavaScript.
	script := r.phase.EmbeddedScriptPath(".js")
	source, err := r.deployment.Staging.ReadFile(script)
	switch {
	case err == nil:
		if err := r.runScript(ctx, script, string(source)); err != nil {
			return err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	return nil
}

// scriptEnvironment converts the deployment variables into environment
// variables for scripts. Keys are uppercased with non-alphanumeric runes
// replaced by underscores, and gain a ROOTSTOCK_ prefix when the sanitized
// key does not already carry one.
func scriptEnvironment(variables *rsvariables.Store) []string {
	keys := variables.Keys()
	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, environmentName(key)+"="+variables.Value(key))
	}
	return env
}

func environmentName(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if !strings.HasPrefix(name, "ROOTSTOCK_") {
		name = "ROOTSTOCK_" + name
	}
	return name
}
