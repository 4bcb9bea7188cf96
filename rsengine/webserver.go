package rsengine

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/leafbridge/rootstock/internal/syncwriter"
	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsevent"
)

// Registration identifies a web server site and the directory it should
// serve.
type Registration struct {
	Site string
	Root string
}

// WebServerRegistrar registers a deployed site with a web server.
type WebServerRegistrar interface {
	Register(ctx context.Context, registration Registration) error
}

// registerWebServerConvention points a web server site at the deployed
// tree. It does nothing unless the deployment names a site.
type registerWebServerConvention struct {
	registrar WebServerRegistrar
	events    rsevent.Recorder
}

func (c registerWebServerConvention) Name() string {
	return "register-web-server"
}

func (c registerWebServerConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	site := deployment.Variables.Value(rsdeploy.VariableWebServerSite)
	if site == "" {
		return nil
	}

	root := deployment.Variables.Value(rsdeploy.VariableWebServerRoot)
	if root == "" {
		root = deployment.InstallDir
	}

	registrar := c.registrar
	if registrar == nil {
		command, err := registrationCommand(deployment)
		if err != nil {
			return fmt.Errorf("cannot register the \"%s\" site: %w", site, err)
		}
		registrar = command
	}

	if err := registrar.Register(ctx, Registration{Site: site, Root: root}); err != nil {
		return fmt.Errorf("failed to register the \"%s\" site: %w", site, err)
	}

	c.events.Record(rsdeployevent.WebServerRegistered{
		Deployment: deployment.ID,
		Site:       site,
		Root:       root,
	})
	return nil
}

// registrationCommand builds a command registrar from the deployment's
// configured registration command.
func registrationCommand(deployment *RunningDeployment) (commandRegistrar, error) {
	encoded := deployment.Variables.Value(rsdeploy.VariableWebServerRegisterCommand)
	if encoded == "" {
		return commandRegistrar{}, fmt.Errorf("no registration command is configured")
	}

	var command []string
	if err := json.Unmarshal([]byte(encoded), &command); err != nil {
		return commandRegistrar{}, fmt.Errorf("the \"%s\" variable does not hold a JSON array of arguments: %w", rsdeploy.VariableWebServerRegisterCommand, err)
	}
	if len(command) == 0 || command[0] == "" {
		return commandRegistrar{}, fmt.Errorf("the \"%s\" variable holds an empty registration command", rsdeploy.VariableWebServerRegisterCommand)
	}

	return commandRegistrar{command: command}, nil
}

// commandRegistrar registers a site by invoking an external command with
// the site name and root directory appended as its final two arguments.
type commandRegistrar struct {
	command []string
}

func (r commandRegistrar) Register(ctx context.Context, registration Registration) error {
	args := make([]string, 0, len(r.command)+1)
	args = append(args, r.command[1:]...)
	args = append(args, registration.Site, registration.Root)

	var output syncwriter.Writer

	cmd := exec.CommandContext(ctx, r.command[0], args...)
	cmd.WaitDelay = time.Minute
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if summary := strings.TrimSpace(output.String()); summary != "" {
			return fmt.Errorf("%w: %s", err, summary)
		}
		return err
	}
	return nil
}

var _ WebServerRegistrar = commandRegistrar{}
