package rsengine

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsevent"
)

// substitutionPattern matches ${Name} variable references. Names follow the
// variable naming convention: letters, digits, underscores and dots.
var substitutionPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.]*)\}`)

// substituteVariablesConvention expands ${Name} references in the staged
// files listed by the substitution targets variable. A reference to an
// undefined variable stops the run; silently deploying a file with dangling
// references would hide a configuration mistake.
type substituteVariablesConvention struct {
	events rsevent.Recorder
}

func (c substituteVariablesConvention) Name() string {
	return "substitute-variables"
}

func (c substituteVariablesConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	targets := deployment.Variables.List(rsdeploy.VariableSubstitutionTargets)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		replacements, err := substituteFile(deployment, target)
		if err != nil {
			return err
		}

		c.events.Record(rsdeployevent.SubstitutionApplied{
			Deployment:   deployment.ID,
			Path:         target,
			Replacements: replacements,
		})
	}
	return nil
}

// substituteFile expands variable references in a single staged file and
// returns the number of replacements made. Files without references are
// left untouched.
func substituteFile(deployment *RunningDeployment, target string) (int, error) {
	content, err := deployment.Staging.ReadFile(target)
	if err != nil {
		return 0, fmt.Errorf("failed to read the substitution target \"%s\": %w", target, err)
	}

	var missing []string
	seen := make(map[string]bool)
	replacements := 0
	replaced := substitutionPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		name := string(match[2 : len(match)-1])
		value, found := deployment.Variables.Get(name)
		if !found {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			return match
		}
		replacements++
		return []byte(value)
	})

	if len(missing) > 0 {
		return 0, fmt.Errorf("the substitution target \"%s\" references undefined variables: %s", target, strings.Join(missing, ", "))
	}
	if replacements == 0 {
		return 0, nil
	}

	if _, err := deployment.Staging.WriteFile(target, bytes.NewReader(replaced), time.Time{}); err != nil {
		return 0, fmt.Errorf("failed to write the substitution target \"%s\": %w", target, err)
	}
	deployment.RecordFile(target)
	return replacements, nil
}
