package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Get_CarriesRuntimeDetails(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.Revision)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func Test_Info_Full(t *testing.T) {
	info := Info{
		Version:   "1.2.3",
		Revision:  "0123456789abcdef0123",
		GoVersion: "go1.25.5",
		Platform:  "linux/amd64",
	}
	assert.Equal(t, "1.2.3 (0123456789ab) go1.25.5 linux/amd64", info.Full())

	info.Modified = true
	assert.True(t, strings.Contains(info.Full(), "0123456789ab+dirty"))

	short := Info{Version: "dev", Revision: "unknown", GoVersion: "go1.25.5", Platform: "linux/amd64"}
	assert.Equal(t, "dev (unknown) go1.25.5 linux/amd64", short.Full())
}

func Test_Info_String(t *testing.T) {
	assert.Equal(t, "dev", Info{Version: "dev"}.String())
}
