package gridlaunch

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleVersion(t *testing.T) {
	assert.Equal(t, "v0.3.1", moduleVersion(debug.Module{Path: modulePath, Version: "v0.3.1"}))
	assert.Empty(t, moduleVersion(debug.Module{Path: modulePath, Version: "(devel)"}))
	assert.NotPanics(t, func() { _ = Version() })
}
