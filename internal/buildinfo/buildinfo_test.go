package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_Print(t *testing.T) {
	var buf bytes.Buffer
	Info{Version: "1.0.0", BuildDate: "2026-05-01", GitCommit: "deadbeef"}.Print(&buf, "opsync server")

	assert.Equal(t, "opsync server\n"+
		"Version:    1.0.0\n"+
		"Build Date: 2026-05-01\n"+
		"Git Commit: deadbeef\n", buf.String())
}
