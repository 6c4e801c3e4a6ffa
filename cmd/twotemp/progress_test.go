package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/twotemp/internal/dynamo"
)

func TestProgressObserver(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressObserver(&buf, 10, 4)

	// Initial sample plus ten steps.
	for i := 0; i <= 10; i++ {
		p.OnStep(dynamo.Sample{Time: float64(i) * 1e-8, State: dynamo.State{Ttr: 12000, Tv: 2000}})
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "[ 20%] step 2/10 "))
	assert.True(t, strings.HasPrefix(lines[4], "[100%] step 10/10 "))
	assert.Contains(t, lines[4], "Ttr=12000.0 K Tv=2000.0 K")
}

func TestRunProgress(t *testing.T) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"run", "--data", t.TempDir(), "--steps", "20", "--progress", "4"})
	require.NoError(t, cmd.Execute())

	var reports []string
	for _, line := range strings.Split(errOut.String(), "\n") {
		if strings.HasPrefix(line, "[") {
			reports = append(reports, line)
		}
	}
	require.Len(t, reports, 4)
	assert.True(t, strings.HasPrefix(reports[3], "[100%] step 20/20 "))
	assert.NotContains(t, out.String(), "step 20/20")
}
