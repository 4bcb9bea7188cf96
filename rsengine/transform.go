package rsengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsevent"
)

// configTransform pairs a JSON merge patch with the staged file it applies
// to.
type configTransform struct {
	Target string          `json:"target"`
	Patch  json.RawMessage `json:"patch"`
}

// transformConfigConvention applies JSON merge patches to staged
// configuration files. The transform targets variable holds a JSON array
// of patch and target pairs; a deployment without it is a no-op.
type transformConfigConvention struct {
	events rsevent.Recorder
}

func (c transformConfigConvention) Name() string {
	return "transform-config"
}

func (c transformConfigConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	value := deployment.Variables.Value(rsdeploy.VariableTransformTargets)
	if value == "" {
		return nil
	}

	var transforms []configTransform
	if err := json.Unmarshal([]byte(value), &transforms); err != nil {
		return fmt.Errorf("the \"%s\" variable does not hold a JSON array of transforms: %w", rsdeploy.VariableTransformTargets, err)
	}

	for i, transform := range transforms {
		if err := ctx.Err(); err != nil {
			return err
		}
		if transform.Target == "" {
			return fmt.Errorf("the transform at position %d is missing a target", i+1)
		}
		if len(transform.Patch) == 0 {
			return fmt.Errorf("the transform at position %d is missing a patch", i+1)
		}

		if err := applyTransform(deployment, transform); err != nil {
			return err
		}

		c.events.Record(rsdeployevent.TransformApplied{
			Deployment: deployment.ID,
			Patch:      compactJSON(transform.Patch),
			Target:     transform.Target,
		})
	}
	return nil
}

// applyTransform merges one patch into its staged target file.
func applyTransform(deployment *RunningDeployment, transform configTransform) error {
	content, err := deployment.Staging.ReadFile(transform.Target)
	if err != nil {
		return fmt.Errorf("failed to read the transform target \"%s\": %w", transform.Target, err)
	}

	var document any
	if err := json.Unmarshal(content, &document); err != nil {
		return fmt.Errorf("the transform target \"%s\" does not hold JSON: %w", transform.Target, err)
	}
	var patch any
	if err := json.Unmarshal(transform.Patch, &patch); err != nil {
		return fmt.Errorf("the transform patch for \"%s\" does not hold JSON: %w", transform.Target, err)
	}

	encoded, err := json.MarshalIndent(mergeJSON(document, patch), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode the transformed \"%s\": %w", transform.Target, err)
	}
	encoded = append(encoded, '\n')

	if _, err := deployment.Staging.WriteFile(transform.Target, bytes.NewReader(encoded), time.Time{}); err != nil {
		return fmt.Errorf("failed to write the transform target \"%s\": %w", transform.Target, err)
	}
	deployment.RecordFile(transform.Target)
	return nil
}

// mergeJSON merges patch into document. Objects merge recursively, null
// patch values delete keys, and any other patch value replaces the
// document value.
func mergeJSON(document, patch any) any {
	patchObject, ok := patch.(map[string]any)
	if !ok {
		return patch
	}
	documentObject, ok := document.(map[string]any)
	if !ok {
		documentObject = nil
	}

	merged := make(map[string]any, len(documentObject)+len(patchObject))
	for key, value := range documentObject {
		merged[key] = value
	}
	for key, value := range patchObject {
		if value == nil {
			delete(merged, key)
			continue
		}
		merged[key] = mergeJSON(merged[key], value)
	}
	return merged
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
