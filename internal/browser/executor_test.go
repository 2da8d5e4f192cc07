package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionDescribe(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{"navigate", Action{Kind: ActionNavigate, URL: "http://localhost:3000"}, "navigate to http://localhost:3000"},
		{"click by text", Action{Kind: ActionClick, Text: "Preferences"}, `click element with text "Preferences"`},
		{"click by selector", Action{Kind: ActionClick, Selector: "#save"}, "click #save"},
		{"fill", Action{Kind: ActionFill, Selector: `input[type="text"]`, Value: "Ada"}, `fill input[type="text"] with "Ada"`},
		{"radio", Action{Kind: ActionSetRadio, Value: "OPT_IN"}, "select radio value OPT_IN"},
		{"screenshot", Action{Kind: ActionScreenshot}, "capture screenshot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.Describe())
		})
	}
}

func TestXPathString(t *testing.T) {
	assert.Equal(t, `'Preferences'`, xpathString("Preferences"))
	assert.Equal(t, `"it's here"`, xpathString("it's here"))
	assert.Equal(t, `concat('a', "'", '"b')`, xpathString(`a'"b`))
}
