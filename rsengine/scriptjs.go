package rsengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
)

// runScript executes an embedded JavaScript file on an in-process
// interpreter. The script sees a rootstock host object with access to the
// deployment variables; its log output is captured for the event record.
func (r scriptRunner) runScript(ctx context.Context, name, source string) error {
	r.events.Record(rsdeployevent.ScriptStarted{
		Deployment: r.deployment.ID,
		Phase:      r.phase,
		Layer:      rsdeploy.LayerEmbedded,
		Name:       name,
	})

	var output strings.Builder
	started := time.Now()
	err := evaluateScript(ctx, r.deployment, name, source, &output)
	stopped := time.Now()

	r.events.Record(rsdeployevent.ScriptStopped{
		Deployment: r.deployment.ID,
		Phase:      r.phase,
		Layer:      rsdeploy.LayerEmbedded,
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

// evaluateScript runs JavaScript source against the deployment.
func evaluateScript(ctx context.Context, deployment *RunningDeployment, name, source string, output *strings.Builder) error {
	vm := goja.New()

	host := map[string]any{
		"get": func(key string) string {
			return deployment.Variables.Value(key)
		},
		"set": func(key, value string) {
			deployment.Variables.Set(key, value)
		},
		"log": func(message string) {
			output.WriteString(message)
			output.WriteByte('\n')
		},
	}
	if err := vm.Set("rootstock", host); err != nil {
		return err
	}

	// Interrupt the interpreter if the context is cancelled while the
	// script runs.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	_, err := vm.RunScript(name, source)
	return err
}
