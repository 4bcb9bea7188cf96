package rsdeploy

// Variables recognized by the deployment engine and its conventions.
//
// Variables under the Rootstock.Deployment prefix describe a single
// invocation. They are stamped at the start of each run and never
// participate in deployment fingerprints.
const (
	// Target identity.
	VariableEnvironment = "Rootstock.Environment"
	VariableProject     = "Rootstock.Project"
	VariableTenant      = "Rootstock.Tenant"
	VariableMachine     = "Rootstock.Machine"

	// Package handling.
	VariableCustomInstallDirectory      = "Rootstock.Package.CustomInstallDirectory"
	VariableCustomInstallDirectoryPurge = "Rootstock.Package.CustomInstallDirectoryPurge"
	VariableExpectedHash                = "Rootstock.Package.ExpectedHash"

	// Per-invocation values.
	VariableDeploymentID         = "Rootstock.Deployment.ID"
	VariableDeploymentStarted    = "Rootstock.Deployment.Started"
	VariableDeploymentStagingDir = "Rootstock.Deployment.StagingDirectory"
	VariableForce                = "Rootstock.Deployment.Force"

	// Lifecycle scripts. Each holds a JSON array of argv arrays.
	VariableScriptsPreDeploy  = "Rootstock.Scripts.PreDeploy"
	VariableScriptsDeploy     = "Rootstock.Scripts.Deploy"
	VariableScriptsPostDeploy = "Rootstock.Scripts.PostDeploy"

	// File rewriting. Substitution targets are a comma-separated list of
	// path patterns. Transform targets are a JSON array of patch/target
	// pairs.
	VariableSubstitutionTargets = "Rootstock.Substitution.Targets"
	VariableTransformTargets    = "Rootstock.Transform.Targets"

	// Web server registration.
	VariableWebServerSite            = "Rootstock.WebServer.Site"
	VariableWebServerRoot            = "Rootstock.WebServer.Root"
	VariableWebServerRegisterCommand = "Rootstock.WebServer.RegisterCommand"
)

// VolatilePrefix is the prefix of per-invocation variables. Values under
// this prefix change on every run and are excluded from deployment
// fingerprints.
const VolatilePrefix = "Rootstock.Deployment."
