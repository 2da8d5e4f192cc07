package dispatch

import (
	"mhmd-mcp/backend/pkg/models"
)

// The untyped parameter bag crosses the boundary exactly once: each decode
// function below converts it into the workflow's typed input, so no workflow
// logic ever touches a raw map.

func stringParam(params map[string]any, key string) (string, *Error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", failf(KindInvalidParameters, "parameter %q must be a string", key)
	}
	return s, nil
}

func requiredStringParam(params map[string]any, key string) (string, *Error) {
	s, derr := stringParam(params, key)
	if derr != nil {
		return "", derr
	}
	if s == "" {
		return "", failf(KindInvalidParameters, "missing required parameter %q", key)
	}
	return s, nil
}

func numberParam(params map[string]any, key string) (float64, *Error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, failf(KindInvalidParameters, "missing required parameter %q", key)
	}
	switch n := raw.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, failf(KindInvalidParameters, "parameter %q must be a number", key)
	}
}

func decodeToggleInput(params map[string]any) (models.ToggleWorkflowInput, *Error) {
	var in models.ToggleWorkflowInput
	var derr *Error

	if in.Name, derr = stringParam(params, "name"); derr != nil {
		return in, derr
	}
	if in.Email, derr = stringParam(params, "email"); derr != nil {
		return in, derr
	}
	if in.BaseURL, derr = stringParam(params, "base_url"); derr != nil {
		return in, derr
	}

	pref, derr := stringParam(params, "preference")
	if derr != nil {
		return in, derr
	}
	if pref != "" {
		in.Preference = models.MHMDPreference(pref)
		if !in.Preference.Valid() {
			return in, failf(KindInvalidParameters, "parameter %q must be OPT_IN or OPT_OUT", "preference")
		}
	}
	return in, nil
}

func decodeCommandInput(params map[string]any) (models.CommandWorkflowInput, *Error) {
	var in models.CommandWorkflowInput
	var derr *Error

	if in.Command, derr = requiredStringParam(params, "command"); derr != nil {
		return in, derr
	}
	if in.TargetBase, derr = stringParam(params, "target_base"); derr != nil {
		return in, derr
	}
	return in, nil
}

func decodeScreenshotInput(params map[string]any) (models.ScreenshotInput, *Error) {
	var in models.ScreenshotInput
	var derr *Error

	if in.URL, derr = requiredStringParam(params, "url"); derr != nil {
		return in, derr
	}
	if in.WaitFor, derr = stringParam(params, "wait_for"); derr != nil {
		return in, derr
	}
	return in, nil
}

func decodeAPIProbeInput(params map[string]any) (models.APIProbeInput, *Error) {
	var in models.APIProbeInput
	var derr *Error

	if in.BaseURL, derr = stringParam(params, "base_url"); derr != nil {
		return in, derr
	}
	return in, nil
}

type calculateInput struct {
	Operation string
	A, B      float64
}

func decodeCalculateInput(params map[string]any) (calculateInput, *Error) {
	var in calculateInput
	var derr *Error

	if in.Operation, derr = requiredStringParam(params, "operation"); derr != nil {
		return in, derr
	}
	switch in.Operation {
	case "add", "subtract", "multiply", "divide":
	default:
		return in, failf(KindInvalidParameters, "parameter %q must be one of add, subtract, multiply, divide", "operation")
	}

	if in.A, derr = numberParam(params, "a"); derr != nil {
		return in, derr
	}
	if in.B, derr = numberParam(params, "b"); derr != nil {
		return in, derr
	}
	return in, nil
}
