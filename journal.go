package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsjournal"
)

// JournalCmd inspects the deployment journal of the local host.
type JournalCmd struct {
	Show JournalShowCmd `kong:"cmd,help='Shows the recorded deployments for a deployment target.'"`
}

// JournalShowCmd shows the journal entries recorded for a deployment
// target. The target is identified either by its individual components or
// by its key.
type JournalShowCmd struct {
	Home        string `kong:"optional,name='home',env='ROOTSTOCK_HOME',default='/var/lib/rootstock',help='Path of the rootstock home directory.'"`
	Environment string `kong:"optional,name='environment',help='Environment of the deployment target.'"`
	Project     string `kong:"optional,name='project',help='Project of the deployment target.'"`
	Tenant      string `kong:"optional,name='tenant',help='Tenant of the deployment target.'"`
	Machine     string `kong:"optional,name='machine',help='Machine of the deployment target. Defaults to the local host name.'"`
	Target      string `kong:"optional,name='target',help='Target key in environment/project[/tenant]/machine form.'"`
	History     bool   `kong:"optional,name='history',help='Show all recorded deployments instead of the most recent one.'"`
}

// Run executes the rootstock journal show command.
func (cmd JournalShowCmd) Run(ctx context.Context) error {
	// Identify the deployment target.
	target, err := cmd.target()
	if err != nil {
		return err
	}

	// Open the journal for the local host.
	journal, err := rsjournal.OpenStore(filepath.Join(cmd.Home, "journal"))
	if err != nil {
		return err
	}

	// Print the requested entries.
	if cmd.History {
		entries, err := journal.History(target)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("No deployments have been recorded for \"%s\".\n", target)
			return nil
		}
		return printJSON(entries)
	}

	entry, exists, err := journal.TryGetEntry(target)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Printf("No deployments have been recorded for \"%s\".\n", target)
		return nil
	}
	return printJSON(entry)
}

// target builds the deployment target from the command's flags.
func (cmd JournalShowCmd) target() (rsdeploy.TargetID, error) {
	if cmd.Target != "" {
		if cmd.Environment != "" || cmd.Project != "" || cmd.Tenant != "" || cmd.Machine != "" {
			return rsdeploy.TargetID{}, errors.New("a target key cannot be combined with individual target components")
		}
		return parseTargetKey(cmd.Target)
	}

	target := rsdeploy.TargetID{
		Environment: cmd.Environment,
		Project:     cmd.Project,
		Tenant:      cmd.Tenant,
		Machine:     cmd.Machine,
	}
	if target.Machine == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return rsdeploy.TargetID{}, fmt.Errorf("failed to determine the local host name: %w", err)
		}
		target.Machine = hostname
	}
	if err := target.Validate(); err != nil {
		return rsdeploy.TargetID{}, err
	}
	return target, nil
}

// parseTargetKey interprets a target key of the form produced by
// rsdeploy.TargetID.Key.
func parseTargetKey(key string) (rsdeploy.TargetID, error) {
	parts := strings.Split(key, "/")

	var target rsdeploy.TargetID
	switch len(parts) {
	case 3:
		target = rsdeploy.TargetID{Environment: parts[0], Project: parts[1], Machine: parts[2]}
	case 4:
		target = rsdeploy.TargetID{Environment: parts[0], Project: parts[1], Tenant: parts[2], Machine: parts[3]}
	default:
		return rsdeploy.TargetID{}, fmt.Errorf("the target key \"%s\" does not have the form environment/project[/tenant]/machine", key)
	}

	if err := target.Validate(); err != nil {
		return rsdeploy.TargetID{}, err
	}
	return target, nil
}

// printJSON prints the given value as indented JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}
