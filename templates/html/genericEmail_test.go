package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderGenericEmailEscapes(t *testing.T) {
	out := RenderGenericEmail("<b>hi</b>", "line one\nline <two>")

	assert.Contains(t, out, "&lt;b&gt;hi&lt;/b&gt;")
	assert.Contains(t, out, "line one<br>line &lt;two&gt;")
	assert.NotContains(t, out, "<two>")
}

func TestRenderWelcomeEmail(t *testing.T) {
	htmlContent, plain := RenderWelcomeEmail(" City General ")

	assert.Contains(t, plain, "Hello City General,")
	assert.Contains(t, htmlContent, WelcomeSubject)
	assert.Contains(t, htmlContent, "Hello City General,")
}
