package updater

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, "1.2.3", normalizeVersion("v1.2.3"))
	assert.Equal(t, "1.2.3", normalizeVersion(" 1.2.3\n"))
	assert.Equal(t, "dev", normalizeVersion("dev"))
}

func TestAssetName(t *testing.T) {
	assert.Equal(t, "igget_"+runtime.GOOS+"_"+runtime.GOARCH, AssetName())
}
