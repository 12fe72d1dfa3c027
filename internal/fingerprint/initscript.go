package fingerprint

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed bootstrap.js.tmpl
var bootstrapScriptSrc string

//go:embed behavior.js.tmpl
var behaviorScriptSrc string

var (
	bootstrapTmpl = template.Must(template.New("bootstrap").Parse(bootstrapScriptSrc))
	behaviorTmpl  = template.Must(template.New("behavior").Parse(behaviorScriptSrc))
)

// bootstrapData is the typed payload rendered into the bootstrap template.
type bootstrapData struct {
	WebGLVendor                 string
	WebGLRenderer               string
	WebGLVersion                string
	WebGLShadingLanguageVersion string
	CanvasSeed                  string
	AudioSeed                   string
	HardwareConcurrency         int
	DeviceMemoryGB              int
}

type behaviorData struct {
	MouseStartX        int
	MouseStartY        int
	MouseJitterEveryMS int
	ScrollSweepEveryMS int
}

// BootstrapScript renders the page bootstrap pinning the identity's hardware,
// audio, and timing story before any site script runs. Sessions install it as
// a new-document script.
func BootstrapScript(id SessionIdentity) (string, error) {
	var buf bytes.Buffer
	err := bootstrapTmpl.Execute(&buf, bootstrapData{
		WebGLVendor:                 id.WebGL.Vendor,
		WebGLRenderer:               id.WebGL.Renderer,
		WebGLVersion:                id.WebGL.Version,
		WebGLShadingLanguageVersion: id.WebGL.ShadingLanguageVersion,
		CanvasSeed:                  id.CanvasSeed,
		AudioSeed:                   id.AudioSeed,
		HardwareConcurrency:         id.Archetype.HardwareConcurrency,
		DeviceMemoryGB:              id.Archetype.DeviceMemoryGB,
	})
	if err != nil {
		return "", fmt.Errorf("render bootstrap script: %w", err)
	}
	return buf.String(), nil
}

// BehaviorScript renders the idle pointer drift and scroll sweep loop that
// runs alongside the scripted interaction.
func BehaviorScript(id SessionIdentity) (string, error) {
	var buf bytes.Buffer
	err := behaviorTmpl.Execute(&buf, behaviorData{
		MouseStartX:        id.Behavior.MouseStartX,
		MouseStartY:        id.Behavior.MouseStartY,
		MouseJitterEveryMS: int(id.Behavior.MouseJitterEvery / time.Millisecond),
		ScrollSweepEveryMS: int(id.Behavior.ScrollSweepEvery / time.Millisecond),
	})
	if err != nil {
		return "", fmt.Errorf("render behavior script: %w", err)
	}
	return buf.String(), nil
}
