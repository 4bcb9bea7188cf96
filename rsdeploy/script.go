package rsdeploy

import "fmt"

// Script layers, in the order they run within a phase.
const (
	LayerFeature    ScriptLayer = "feature"
	LayerConfigured ScriptLayer = "configured"
	LayerEmbedded   ScriptLayer = "embedded"
)

// ScriptLayer identifies the origin of a script that runs during a
// deployment phase. Feature scripts are compiled into the program,
// configured scripts come from deployment variables, and embedded scripts
// are carried within the deployment package itself.
type ScriptLayer string

// Validate returns a non-nil error if the script layer is not recognized.
func (l ScriptLayer) Validate() error {
	switch l {
	case LayerFeature, LayerConfigured, LayerEmbedded:
		return nil
	}
	return fmt.Errorf("the script layer \"%s\" is not recognized", l)
}

// String returns the script layer as a string.
func (l ScriptLayer) String() string {
	return string(l)
}
