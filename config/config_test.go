package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xraph/txledger"
	"github.com/xraph/txledger/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "funding", cfg.LockPolicy)
	assert.Equal(t, 5*time.Second, cfg.HookTimeout)
	assert.Equal(t, 256, cfg.PipelineBuffer)
	assert.False(t, cfg.Metrics)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want config.Config
	}{
		{
			name: "top level",
			yaml: "lock_policy: all\nhook_timeout: 250ms\nmetrics: true\n",
			want: config.Config{LockPolicy: "all", HookTimeout: 250 * time.Millisecond, Metrics: true},
		},
		{
			name: "txledger key",
			yaml: "txledger:\n  log_level: debug\n  pipeline_buffer: 8\n",
			want: config.Config{LogLevel: "debug", PipelineBuffer: 8},
		},
		{
			name: "namespaced key wins",
			yaml: "extensions:\n  txledger:\n    log_format: json\ntxledger:\n  log_format: console\n",
			want: config.Config{LogFormat: "json"},
		},
		{
			name: "empty",
			yaml: "",
			want: config.Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := config.Parse([]byte("lock_policy: [unclosed"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lock_policy: all\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "all", cfg.LockPolicy)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	file := config.Config{LockPolicy: "all", LogLevel: "warn", PipelineBuffer: 16}
	flags := config.Config{LogLevel: "debug", Metrics: true}

	got := config.Merge(file, flags)
	assert.Equal(t, "all", got.LockPolicy)
	assert.Equal(t, "debug", got.LogLevel)
	assert.Equal(t, 16, got.PipelineBuffer)
	assert.True(t, got.Metrics)
	assert.Equal(t, config.FormatConsole, got.LogFormat)
	assert.Equal(t, 5*time.Second, got.HookTimeout)
}

func TestValidate(t *testing.T) {
	cfg := config.Config{
		LockPolicy:     "sometimes",
		LogLevel:       "loud",
		LogFormat:      "xml",
		HookTimeout:    -time.Second,
		PipelineBuffer: -1,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, config.IsValidationError(err))

	var multi txledger.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 5)
}

func TestLevel(t *testing.T) {
	lvl, err := config.Config{LogLevel: "debug"}.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)
}

func TestOptions(t *testing.T) {
	cfg := config.MergeWithDefaults(config.Config{LockPolicy: "all"})
	l := txledger.New(cfg.Options()...)
	assert.Equal(t, txledger.LockBlocksAll, l.LockPolicy())
}
