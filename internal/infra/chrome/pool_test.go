package chrome

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bin2pdf/internal/config"
)

func testConfig(poolSize int) config.Config {
	cfg := config.Default()
	cfg.PDF.ChromePoolSize = poolSize
	cfg.PDF.UserDataDir = filepath.Join(os.TempDir(), "bin2pdf-chrome-tests")
	cfg.PDF.TimeoutSecs = 1
	return cfg
}

func TestCreateProfileDir_DefaultAndCustomBase(t *testing.T) {
	cfg := testConfig(1)
	cfg.PDF.UserDataDir = ""
	dir1, err := createProfileDir(cfg)
	require.NoError(t, err)
	defer os.RemoveAll(dir1)
	_, err = os.Stat(dir1)
	require.NoError(t, err)

	customBase := t.TempDir()
	cfg.PDF.UserDataDir = customBase
	dir2, err := createProfileDir(cfg)
	require.NoError(t, err)
	defer os.RemoveAll(dir2)
	assert.Equal(t, customBase, filepath.Dir(dir2))
}

func TestCreateProfileDir_InvalidBase(t *testing.T) {
	cfg := testConfig(1)
	cfg.PDF.UserDataDir = "/dev/null/x"
	_, err := createProfileDir(cfg)
	assert.Error(t, err)
}

func TestPoolAcquireReleaseAndClose(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 1), browserCtx: context.Background()}
	p.sem <- struct{}{}

	tab, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tab)
	assert.Len(t, p.sem, 0, "token consumed after acquire")

	p.Release(tab, nil)
	assert.Len(t, p.sem, 1, "token returned after release")

	p.Close()
	_, err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolAcquireContextCanceled(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 1), browserCtx: context.Background()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolAcquireTimesOutWhenNoCapacity(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 1), browserCtx: context.Background()}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolStatsAndClose(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 2), cfg: testConfig(2), profileDir: t.TempDir(), browserCtx: context.Background()}
	p.sem <- struct{}{}
	p.sem <- struct{}{}

	st := p.Stats(1)
	assert.True(t, st.Enabled)
	assert.Equal(t, 2, st.Capacity)
	assert.Equal(t, 2, st.Idle)
	assert.Equal(t, 0, st.InUse)

	tab, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stats(1).InUse)
	p.Release(tab, nil)

	p.Close()
	p.Close() // idempotent
	assert.False(t, p.Stats(1).Enabled)
}

func TestPoolRestartClosed(t *testing.T) {
	p := &Pool{closed: true}
	assert.ErrorIs(t, p.Restart(), ErrPoolClosed)
}

func TestPoolRestart_Success(t *testing.T) {
	cfg := testConfig(1)
	old := t.TempDir()
	p := &Pool{cfg: cfg, sem: make(chan struct{}, 1), profileDir: old}
	p.sem <- struct{}{}

	require.NoError(t, p.Restart())
	assert.NotEmpty(t, p.profileDir)
	assert.NotEqual(t, old, p.profileDir)
	assert.GreaterOrEqual(t, p.Stats(1).Restarts, 1)
	p.Close()
}

func TestNewPool_Disabled(t *testing.T) {
	_, err := NewPool(testConfig(0))
	assert.ErrorIs(t, err, ErrPoolDisabled)
}

func TestNewPool_DoesNotStartBrowser(t *testing.T) {
	cfg := testConfig(2)
	cfg.PDF.ChromePath = "/bin/true"

	p, err := NewPool(cfg)
	require.NoError(t, err)
	defer p.Close()

	st := p.Stats(cfg.PDF.TimeoutSecs)
	assert.True(t, st.Enabled)
	assert.Equal(t, 2, st.Idle)
	assert.DirExists(t, st.ProfileDir)
}

func TestIsSessionInterrupted(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "target closed", err: errors.New("target closed"), want: true},
		{name: "normal error", err: errors.New("validation failed"), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSessionInterrupted(tc.err))
		})
	}
}
