package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const input = `type,client,tx,amount
deposit,1,1,1.0
deposit,2,2,2.0
deposit,1,3,2.0
withdrawal,1,4,1.5
withdrawal,2,5,3.0
`

const want = `client,available,held,total,locked
1,1.5000,0.0000,1.5000,false
2,2.0000,0.0000,2.0000,false
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunFromFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := writeFile(t, "transactions.csv", input)

	code := run(context.Background(), []string{"-log-level", "error", path}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Equal(t, want, stdout.String())
}

func TestRunFromStdin(t *testing.T) {
	for _, args := range [][]string{{"-log-level=error"}, {"-log-level=error", "-"}} {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), args, strings.NewReader(input), &stdout, &stderr)
		require.Equal(t, exitOK, code, stderr.String())
		assert.Equal(t, want, stdout.String())
	}
}

func TestRunLockPolicyFromConfig(t *testing.T) {
	csv := `type,client,tx,amount
deposit,1,1,5
deposit,1,2,5
dispute,1,1,
chargeback,1,1,
dispute,1,2,
`
	cfg := writeFile(t, "txledger.yaml", "txledger:\n  lock_policy: all\n  log_level: error\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfg, writeFile(t, "in.csv", csv)}, nil, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "1,5.0000,0.0000,5.0000,true")

	// The flag overrides the file.
	stdout.Reset()
	code = run(context.Background(), []string{"-config", cfg, "-lock-policy", "funding", writeFile(t, "in.csv", csv)}, nil, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "1,0.0000,5.0000,5.0000,true")
}

func TestRunMetrics(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-metrics", "-log-format", "json"}, strings.NewReader(input), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	logs := stderr.String()
	assert.Contains(t, logs, `"msg":"metric"`)
	assert.Contains(t, logs, "txledger.operations.applied")
	assert.Contains(t, logs, `"msg":"ingest finished"`)
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown flag", []string{"-nope"}, exitUsage},
		{"too many args", []string{"a.csv", "b.csv"}, exitUsage},
		{"missing input", []string{filepath.Join(t.TempDir(), "missing.csv")}, exitError},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, exitError},
		{"invalid lock policy", []string{"-lock-policy", "sometimes"}, exitError},
		{"bad header", []string{"-log-level=error", writeFile(t, "bad.csv", "a,b\n1,2\n")}, exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, strings.NewReader(""), &stdout, &stderr)
			assert.Equal(t, tt.code, code, stderr.String())
			assert.Empty(t, stdout.String())
		})
	}
}
