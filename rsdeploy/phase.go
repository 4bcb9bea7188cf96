package rsdeploy

import "fmt"

// Deployment lifecycle phases in which scripts can run.
const (
	PhasePreDeploy  Phase = "pre-deploy"
	PhaseDeploy     Phase = "deploy"
	PhasePostDeploy Phase = "post-deploy"
)

// Phase identifies a point in the deployment lifecycle at which scripts run.
type Phase string

// Validate returns a non-nil error if the phase is not recognized.
func (p Phase) Validate() error {
	switch p {
	case PhasePreDeploy, PhaseDeploy, PhasePostDeploy:
		return nil
	}
	return fmt.Errorf("the deployment phase \"%s\" is not recognized", p)
}

// ScriptVariable returns the name of the variable that holds user-configured
// scripts for the phase.
func (p Phase) ScriptVariable() string {
	switch p {
	case PhasePreDeploy:
		return VariableScriptsPreDeploy
	case PhaseDeploy:
		return VariableScriptsDeploy
	case PhasePostDeploy:
		return VariableScriptsPostDeploy
	}
	return ""
}

// EmbeddedScriptPath returns the path of a package-embedded script for the
// phase, relative to the root of the extracted package. The ext argument
// carries the script extension, such as ".sh" or ".js".
func (p Phase) EmbeddedScriptPath(ext string) string {
	return "rootstock/" + string(p) + ext
}

// String returns the phase as a string.
func (p Phase) String() string {
	return string(p)
}
