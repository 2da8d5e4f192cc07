// Package models defines the domain models for the MHMD automation service
package models

import (
	"time"
)

// MHMDPreference represents a user's My Health My Data consent choice
type MHMDPreference string

const (
	PreferenceOptIn  MHMDPreference = "OPT_IN"
	PreferenceOptOut MHMDPreference = "OPT_OUT"
)

// Valid reports whether p is one of the two recognized preference values.
func (p MHMDPreference) Valid() bool {
	return p == PreferenceOptIn || p == PreferenceOptOut
}

// Toggled returns the opposite preference value.
func (p MHMDPreference) Toggled() MHMDPreference {
	if p == PreferenceOptIn {
		return PreferenceOptOut
	}
	return PreferenceOptIn
}

// UserProfile is the single stored user record. At most one profile exists
// in the store at any time; updates overwrite the whole record.
type UserProfile struct {
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Preference MHMDPreference `json:"mhmd_preference"`
}

// Complete reports whether the profile carries enough data to be considered
// a real record. The store treats an incomplete record as absent.
func (p *UserProfile) Complete() bool {
	return p != nil && p.Name != "" && p.Email != ""
}

// Envelope is the uniform result shape returned by every dispatch call.
// Exactly one of Data (on success) or Error (on failure) is meaningful;
// a failed envelope always carries a non-empty Error.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UserResponse wraps profile CRUD results for the REST API.
type UserResponse struct {
	Success bool         `json:"success"`
	Data    *UserProfile `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ArtifactKind distinguishes the artifact types a workflow can produce.
type ArtifactKind string

const (
	ArtifactScreenshot   ArtifactKind = "screenshot"
	ArtifactVerification ArtifactKind = "verification"
)

// Artifact describes a captured byte blob (screenshot PNG) or structured
// snapshot (verification JSON) persisted during a workflow run.
type Artifact struct {
	ID          string       `json:"id"`
	Kind        ArtifactKind `json:"kind"`
	Path        string       `json:"path"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// MethodInfo describes one registered dispatch method.
type MethodInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemInfo is the static service metadata returned by the system_info probe.
type SystemInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}
