package monitor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayID(t *testing.T) {
	assert.Equal(t, "DE-1", ProxyTarget{Proxy: "socks5://1.2.3.4:1080", Remark: "DE-1"}.DisplayID())
	assert.Equal(t, "socks5://1.2.3.4:1080", ProxyTarget{Proxy: "socks5://1.2.3.4:1080"}.DisplayID())
	assert.Equal(t, "socks5://1.2.3.4:1080", ProxyTarget{Proxy: "socks5://1.2.3.4:1080", Remark: " \t"}.DisplayID())
}

func TestResultReport_Up(t *testing.T) {
	rep := Result{Target: ProxyTarget{Proxy: "http://p:1", Remark: "edge"}, Status: StatusUp, LatencyMS: 950}.Report()

	assert.Equal(t, "up", rep.Status)
	assert.Equal(t, "OK : edge : OK (950 ms)", rep.Message)
	require.NotNil(t, rep.Ping)
	assert.EqualValues(t, 950, *rep.Ping)
}

func TestResultReport_Down(t *testing.T) {
	failed := Result{Target: ProxyTarget{Proxy: "http://p:1"}, Status: StatusFailed}.Report()
	assert.Equal(t, "down", failed.Status)
	assert.Equal(t, "FAILED : http://p:1 : FAILED", failed.Message)
	assert.Nil(t, failed.Ping)

	errored := Result{Target: ProxyTarget{Proxy: "http://p:1"}, Status: StatusError, Detail: "timed out"}.Report()
	assert.Equal(t, "down", errored.Status)
	assert.Equal(t, "ERROR : http://p:1 : timed out", errored.Message)
	assert.Nil(t, errored.Ping)
}

func TestStatusMarshalsAsText(t *testing.T) {
	b, err := json.Marshal(Result{Status: StatusFailed})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"FAILED"`)
}
