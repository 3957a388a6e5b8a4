package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aabtop/respire-go/pkg/i18n"
)

func events(lines ...string) *bytes.Buffer {
	return bytes.NewBufferString(strings.Join(lines, "\n") + "\n")
}

func TestRelayRendersFinalTableWithStatuses(t *testing.T) {
	in := events(
		`{"type":"CreateSystemCommandNode","id":1,"command":"cp a b"}`,
		`{"type":"ExecutingCommand","id":1}`,
		`{"type":"ProcessingComplete","id":1}`,
	)
	var out bytes.Buffer

	_, err := Relay(in, &out, Options{
		RefreshInterval: time.Millisecond,
		Tr:              i18n.English(),
	})
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "cp a b")
	assert.Contains(t, out.String(), "[1 / 0]")
}

func TestRelayReportsFailureStatus(t *testing.T) {
	in := events(
		`{"type":"CreateSystemCommandNode","id":1,"command":"false"}`,
		`{"type":"ExecutingCommand","id":1}`,
		`{"type":"ProcessingComplete","id":1,"error":"exit status 1"}`,
		`{"type":"SignalRespireError","error":"build failed"}`,
	)
	var out bytes.Buffer

	lastErr, err := Relay(in, &out, Options{
		RefreshInterval: time.Millisecond,
		Tr:              i18n.English(),
	})
	assert.NoError(t, err)
	assert.Equal(t, "build failed", lastErr)
}

func TestRelayVerboseEchoesRawLines(t *testing.T) {
	in := events(`{"type":"CreateRegistryNode","id":1,"path":"root.json"}`)
	var out bytes.Buffer

	_, err := Relay(in, &out, Options{
		Verbose:         true,
		RefreshInterval: time.Millisecond,
		Tr:              i18n.English(),
	})
	assert.NoError(t, err)
	assert.Contains(t, out.String(), `"type":"CreateRegistryNode"`)
}
