package models

// ToggleWorkflowInput carries the optional parameters of the preference
// toggle workflow. Empty fields mean "not specified": the workflow fills a
// default name, generates a random email, and toggles the stored preference.
type ToggleWorkflowInput struct {
	Name       string         `json:"name,omitempty"`
	Email      string         `json:"email,omitempty"`
	Preference MHMDPreference `json:"preference,omitempty"`
	BaseURL    string         `json:"base_url,omitempty"`
}

// ToggleWorkflowResult is the success payload of run_preference_toggle.
type ToggleWorkflowResult struct {
	Trace              []string       `json:"trace"`
	FinalPreference    MHMDPreference `json:"final_preference"`
	VerificationRecord *UserProfile   `json:"verification_record,omitempty"`
	Screenshot         *Artifact      `json:"screenshot,omitempty"`
	Verification       *Artifact      `json:"verification,omitempty"`
}

// CommandWorkflowInput carries the free-text command workflow parameters.
type CommandWorkflowInput struct {
	Command    string `json:"command"`
	TargetBase string `json:"target_base,omitempty"`
}

// CommandWorkflowResult is the success payload of run_free_text_command.
type CommandWorkflowResult struct {
	Trace       []string   `json:"trace"`
	Screenshots []Artifact `json:"screenshots,omitempty"`
}

// ScreenshotInput carries the take_screenshot workflow parameters.
type ScreenshotInput struct {
	URL     string `json:"url"`
	WaitFor string `json:"wait_for,omitempty"`
}

// ScreenshotResult is the success payload of take_screenshot.
type ScreenshotResult struct {
	Trace      []string  `json:"trace"`
	Screenshot *Artifact `json:"screenshot,omitempty"`
}

// APIProbeInput carries the run_api_probe workflow parameters.
type APIProbeInput struct {
	BaseURL string `json:"base_url,omitempty"`
}

// APIProbeResult is the success payload of run_api_probe.
type APIProbeResult struct {
	Trace              []string     `json:"trace"`
	TestProfile        *UserProfile `json:"test_profile,omitempty"`
	VerificationRecord *UserProfile `json:"verification_record,omitempty"`
	Screenshot         *Artifact    `json:"screenshot,omitempty"`
}
