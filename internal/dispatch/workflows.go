package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mhmd-mcp/backend/internal/browser"
	"mhmd-mcp/backend/internal/repository"
	"mhmd-mcp/backend/pkg/models"
)

// saveActions lists the save-control candidates in the fixed order they are
// tried. First success wins, keeping runs reproducible.
func saveActions() []browser.Action {
	return []browser.Action{
		{Kind: browser.ActionClick, Text: "Save Preferences"},
		{Kind: browser.ActionClick, Text: "Save"},
		{Kind: browser.ActionClick, Selector: `input[type="submit"]`},
		{Kind: browser.ActionClick, Selector: `button[type="submit"]`},
	}
}

func randomEmail() string {
	return fmt.Sprintf("testuser_%s@example.com", uuid.New().String()[:6])
}

// runPreferenceToggle is the MHMD preference workflow: drive the frontend to
// the target preference, persist the profile, then verify by reading it
// back. A read-back mismatch fails the workflow even when every browser
// action succeeded; there is no automatic retry.
func (d *Dispatcher) runPreferenceToggle(ctx context.Context, params map[string]any) (any, *Error) {
	in, derr := decodeToggleInput(params)
	if derr != nil {
		return nil, derr
	}

	baseURL := in.BaseURL
	if baseURL == "" {
		baseURL = d.opts.DefaultBaseURL
	}

	result := &models.ToggleWorkflowResult{Trace: []string{}}
	trace := func(format string, args ...any) {
		result.Trace = append(result.Trace, fmt.Sprintf(format, args...))
	}

	page, err := d.executor.NewPage(ctx)
	if err != nil {
		return result, failf(KindActionFailed, "failed to open browser page: %v", err)
	}
	defer page.Close()

	if out := page.Perform(ctx, browser.Action{Kind: browser.ActionNavigate, URL: baseURL}); !out.OK {
		trace("%s", out.Detail)
		return result, failf(KindActionFailed, "%s", out.Detail)
	}
	trace("navigated to %s", baseURL)

	if out := page.Perform(ctx, browser.Action{Kind: browser.ActionClick, Text: "Preferences"}); !out.OK {
		trace("%s", out.Detail)
		return result, failf(KindActionFailed, "%s", out.Detail)
	}
	trace("opened the Preferences page")

	target := in.Preference
	if target == "" {
		current := models.PreferenceOptOut
		stored, err := d.store.GetProfile(ctx)
		switch {
		case err == nil:
			current = stored.Preference
		case errors.Is(err, repository.ErrNotFound):
			// No record yet; the default OPT_OUT stands in as current.
		default:
			trace("failed to read current preference: %v", err)
			return result, failf(KindStoreUnavailable, "failed to read current preference: %v", err)
		}
		target = current.Toggled()
		trace("no preference specified, toggling %s to %s", current, target)
	} else {
		trace("target preference specified: %s", target)
	}

	if out := page.Perform(ctx, browser.Action{Kind: browser.ActionSetRadio, Value: string(target)}); !out.OK {
		trace("%s", out.Detail)
		return result, failf(KindActionFailed, "%s", out.Detail)
	}
	trace("selected the %s radio control", target)

	name := in.Name
	if name == "" {
		name = "Test User"
	}
	if out := page.Perform(ctx, browser.Action{Kind: browser.ActionFill, Selector: `input[type="text"]`, Value: name}); !out.OK {
		trace("%s", out.Detail)
		return result, failf(KindActionFailed, "%s", out.Detail)
	}
	trace("filled name field with %s", name)

	email := in.Email
	if email == "" || email == "random" {
		email = randomEmail()
		trace("generated random email %s", email)
	}
	if out := page.Perform(ctx, browser.Action{Kind: browser.ActionFill, Selector: `input[type="email"]`, Value: email}); !out.OK {
		trace("%s", out.Detail)
		return result, failf(KindActionFailed, "%s", out.Detail)
	}
	trace("filled email field with %s", email)

	saved := false
	for _, action := range saveActions() {
		if out := page.Perform(ctx, action); out.OK {
			trace("clicked save via %s", action.Describe())
			saved = true
			break
		}
	}
	if !saved {
		trace("could not find the save control")
		return result, failf(KindActionFailed, "could not find the save control")
	}

	if out := page.Perform(ctx, browser.Action{Kind: browser.ActionWaitVisible, Selector: ".bg-green-50"}); out.OK {
		trace("save confirmation appeared")
	} else {
		trace("no save confirmation appeared, continuing")
	}

	shot := page.Perform(ctx, browser.Action{Kind: browser.ActionScreenshot})
	if !shot.OK {
		trace("%s", shot.Detail)
		return result, failf(KindActionFailed, "%s", shot.Detail)
	}
	if artifact, err := d.saver.SaveScreenshot(shot.Artifact, "mhmd_workflow"); err != nil {
		trace("failed to persist screenshot: %v", err)
	} else {
		result.Screenshot = artifact
		trace("screenshot saved to %s", artifact.Path)
	}

	profile := &models.UserProfile{Name: name, Email: email, Preference: target}
	if err := d.store.PutProfile(ctx, profile); err != nil {
		trace("failed to persist profile: %v", err)
		return result, failf(KindStoreUnavailable, "failed to persist profile: %v", err)
	}
	trace("profile persisted with preference %s", target)

	stored, err := d.store.GetProfile(ctx)
	if err != nil {
		trace("read-back failed: %v", err)
		return result, failf(KindStoreUnavailable, "read-back failed: %v", err)
	}
	result.VerificationRecord = stored

	if stored.Preference != target {
		trace("verification mismatch: intended %s but store holds %s", target, stored.Preference)
		return result, failf(KindVerificationMismatch, "stored preference %s does not match intended %s", stored.Preference, target)
	}
	trace("read-back verified preference %s", target)

	if verification, err := d.saver.SaveVerification(stored, "mhmd_workflow"); err != nil {
		trace("failed to persist verification record: %v", err)
	} else {
		result.Verification = verification
		trace("verification record saved to %s", verification.Path)
	}

	result.FinalPreference = target
	return result, nil
}

// runFreeTextCommand asks the interpreter for an action plan and executes it
// verbatim. The plan halts at the first failing action; the trace carries
// one line per executed action, including the failing one.
func (d *Dispatcher) runFreeTextCommand(ctx context.Context, params map[string]any) (any, *Error) {
	in, derr := decodeCommandInput(params)
	if derr != nil {
		return nil, derr
	}

	baseURL := in.TargetBase
	if baseURL == "" {
		baseURL = d.opts.DefaultBaseURL
	}

	plan, err := d.interp.Interpret(ctx, in.Command, baseURL)
	if err != nil {
		return nil, failf(KindInterpretationFailed, "%v", err)
	}

	result := &models.CommandWorkflowResult{Trace: []string{}}
	if len(plan) == 0 {
		// Nothing actionable in the command; trivially done.
		return result, nil
	}

	page, err := d.executor.NewPage(ctx)
	if err != nil {
		return result, failf(KindActionFailed, "failed to open browser page: %v", err)
	}
	defer page.Close()

	for i, action := range plan {
		out := page.Perform(ctx, action)
		result.Trace = append(result.Trace, fmt.Sprintf("step %d: %s", i+1, out.Detail))

		if len(out.Artifact) > 0 {
			if artifact, saveErr := d.saver.SaveScreenshot(out.Artifact, "ai_automation"); saveErr == nil {
				result.Screenshots = append(result.Screenshots, *artifact)
			}
		}

		if !out.OK {
			return result, failf(KindActionFailed, "step %d of %d failed: %s", i+1, len(plan), out.Detail)
		}
	}

	return result, nil
}

// runTakeScreenshot navigates to a page, optionally waits for a selector,
// and captures a full-page screenshot.
func (d *Dispatcher) runTakeScreenshot(ctx context.Context, params map[string]any) (any, *Error) {
	in, derr := decodeScreenshotInput(params)
	if derr != nil {
		return nil, derr
	}

	result := &models.ScreenshotResult{Trace: []string{}}
	trace := func(format string, args ...any) {
		result.Trace = append(result.Trace, fmt.Sprintf(format, args...))
	}

	page, err := d.executor.NewPage(ctx)
	if err != nil {
		return result, failf(KindActionFailed, "failed to open browser page: %v", err)
	}
	defer page.Close()

	if out := page.Perform(ctx, browser.Action{Kind: browser.ActionNavigate, URL: in.URL}); !out.OK {
		trace("%s", out.Detail)
		return result, failf(KindActionFailed, "%s", out.Detail)
	}
	trace("navigated to %s", in.URL)

	if in.WaitFor != "" {
		if out := page.Perform(ctx, browser.Action{Kind: browser.ActionWaitVisible, Selector: in.WaitFor}); !out.OK {
			trace("%s", out.Detail)
			return result, failf(KindActionFailed, "%s", out.Detail)
		}
		trace("element %s became visible", in.WaitFor)
	}

	shot := page.Perform(ctx, browser.Action{Kind: browser.ActionScreenshot})
	if !shot.OK {
		trace("%s", shot.Detail)
		return result, failf(KindActionFailed, "%s", shot.Detail)
	}
	artifact, err := d.saver.SaveScreenshot(shot.Artifact, "screenshot")
	if err != nil {
		trace("failed to persist screenshot: %v", err)
		return result, failf(KindActionFailed, "failed to persist screenshot: %v", err)
	}
	result.Screenshot = artifact
	trace("screenshot saved to %s", artifact.Path)

	return result, nil
}

// runAPIProbe seeds a random test profile, drives the browser to the
// Swagger UI, and verifies the seeded record by reading it back.
func (d *Dispatcher) runAPIProbe(ctx context.Context, params map[string]any) (any, *Error) {
	in, derr := decodeAPIProbeInput(params)
	if derr != nil {
		return nil, derr
	}

	baseURL := in.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	result := &models.APIProbeResult{Trace: []string{}}
	trace := func(format string, args ...any) {
		result.Trace = append(result.Trace, fmt.Sprintf(format, args...))
	}

	testProfile := &models.UserProfile{
		Name:       "Test User " + uuid.New().String()[:6],
		Email:      randomEmail(),
		Preference: randomPreference(),
	}
	if err := d.store.PutProfile(ctx, testProfile); err != nil {
		trace("failed to seed test profile: %v", err)
		return result, failf(KindStoreUnavailable, "failed to seed test profile: %v", err)
	}
	result.TestProfile = testProfile
	trace("seeded test profile %s with preference %s", testProfile.Email, testProfile.Preference)

	page, err := d.executor.NewPage(ctx)
	if err != nil {
		return result, failf(KindActionFailed, "failed to open browser page: %v", err)
	}
	defer page.Close()

	docsURL := baseURL + "/docs"
	if out := page.Perform(ctx, browser.Action{Kind: browser.ActionNavigate, URL: docsURL}); !out.OK {
		trace("%s", out.Detail)
		return result, failf(KindActionFailed, "%s", out.Detail)
	}
	trace("navigated to %s", docsURL)

	if out := page.Perform(ctx, browser.Action{Kind: browser.ActionWaitVisible, Selector: ".swagger-ui"}); !out.OK {
		trace("%s", out.Detail)
		return result, failf(KindActionFailed, "%s", out.Detail)
	}
	trace("Swagger UI rendered")

	shot := page.Perform(ctx, browser.Action{Kind: browser.ActionScreenshot})
	if !shot.OK {
		trace("%s", shot.Detail)
		return result, failf(KindActionFailed, "%s", shot.Detail)
	}
	if artifact, err := d.saver.SaveScreenshot(shot.Artifact, "api_probe"); err == nil {
		result.Screenshot = artifact
		trace("screenshot saved to %s", artifact.Path)
	}

	stored, err := d.store.GetProfile(ctx)
	if err != nil {
		trace("read-back failed: %v", err)
		return result, failf(KindStoreUnavailable, "read-back failed: %v", err)
	}
	result.VerificationRecord = stored

	if stored.Preference != testProfile.Preference {
		trace("verification mismatch: seeded %s but store holds %s", testProfile.Preference, stored.Preference)
		return result, failf(KindVerificationMismatch, "stored preference %s does not match seeded %s", stored.Preference, testProfile.Preference)
	}
	trace("read-back verified preference %s", stored.Preference)

	return result, nil
}

func randomPreference() models.MHMDPreference {
	if uuid.New()[0]%2 == 0 {
		return models.PreferenceOptIn
	}
	return models.PreferenceOptOut
}
