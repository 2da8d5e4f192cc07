package dispatch

import "mhmd-mcp/backend/pkg/models"

// Method is the closed enumeration of dispatchable workflows. The string
// names live only at the boundary: ParseMethod maps wire names to variants
// and Dispatch switches exhaustively over them.
type Method int

const (
	MethodListMethods Method = iota
	MethodEcho
	MethodCalculate
	MethodSystemInfo
	MethodTakeScreenshot
	MethodPreferenceToggle
	MethodFreeTextCommand
	MethodAPIProbe
)

// registry fixes the wire name and description of every method, in the
// order list_methods reports them.
var registry = []struct {
	method      Method
	name        string
	description string
}{
	{MethodListMethods, "list_methods", "List the registered methods and their descriptions"},
	{MethodEcho, "echo", "Echo back the input message"},
	{MethodCalculate, "calculate", "Perform basic arithmetic calculations"},
	{MethodSystemInfo, "system_info", "Return static service and runtime metadata"},
	{MethodTakeScreenshot, "take_screenshot", "Navigate to a page and capture a screenshot"},
	{MethodPreferenceToggle, "run_preference_toggle", "Execute the MHMD preference toggle workflow with persistence and read-back verification"},
	{MethodFreeTextCommand, "run_free_text_command", "Interpret a natural language command into a browser action plan and execute it"},
	{MethodAPIProbe, "run_api_probe", "Seed a test profile and verify it through the Swagger UI"},
}

// ParseMethod resolves a wire name to its Method variant.
func ParseMethod(name string) (Method, bool) {
	for _, entry := range registry {
		if entry.name == name {
			return entry.method, true
		}
	}
	return 0, false
}

// String returns the method's wire name.
func (m Method) String() string {
	for _, entry := range registry {
		if entry.method == m {
			return entry.name
		}
	}
	return "unknown"
}

// Registry returns the method catalog for list_methods and the MCP tool list.
func Registry() []models.MethodInfo {
	infos := make([]models.MethodInfo, 0, len(registry))
	for _, entry := range registry {
		infos = append(infos, models.MethodInfo{Name: entry.name, Description: entry.description})
	}
	return infos
}
