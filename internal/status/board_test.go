package status_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/sitepulse/internal/checker"
	"github.com/hazz-dev/sitepulse/internal/config"
	"github.com/hazz-dev/sitepulse/internal/status"
)

func TestBoard_RecordAndLatest(t *testing.T) {
	b := status.NewBoard()
	httpTarget := config.Target{Name: "site", URL: "http://site"}
	httpsTarget := config.Target{Name: "site", URL: "https://site"}

	_, ok := b.Latest(httpTarget)
	assert.False(t, ok)

	b.Record(httpTarget, checker.CheckResult{
		Scheme:       checker.SchemeHTTP,
		StatusCode:   503,
		ResponseTime: 42 * time.Millisecond,
	})
	b.Record(httpsTarget, checker.CheckResult{
		Scheme:           checker.SchemeHTTPS,
		Reachable:        true,
		ContainsExpected: true,
		StatusCode:       200,
	})

	e, ok := b.Latest(httpTarget)
	require.True(t, ok)
	assert.Equal(t, "down", e.Status)
	assert.Equal(t, 503, e.StatusCode)
	assert.Equal(t, int64(42), e.ResponseMs)

	e, ok = b.Latest(httpsTarget)
	require.True(t, ok)
	assert.Equal(t, "up", e.Status)
	assert.Equal(t, "HTTPS", e.Scheme)
}

func TestBoard_LatestWins(t *testing.T) {
	b := status.NewBoard()
	target := config.Target{Name: "site", URL: "http://site"}

	b.Record(target, checker.CheckResult{StatusCode: 500})
	b.Record(target, checker.CheckResult{StatusCode: 200, Reachable: true})

	e, _ := b.Latest(target)
	assert.Equal(t, 200, e.StatusCode)
}

func TestBoard_ConcurrentAccess(t *testing.T) {
	b := status.NewBoard()
	target := config.Target{Name: "site", URL: "http://site"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Record(target, checker.CheckResult{StatusCode: 200})
		}()
		go func() {
			defer wg.Done()
			b.Latest(target)
		}()
	}
	wg.Wait()
}
