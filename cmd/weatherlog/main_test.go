package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/weatherlog/config"
	"github.com/kjk/weatherlog/siser"
)

func setupEnv(t *testing.T) string {
	storePath := filepath.Join(t.TempDir(), "data", "store.txt")
	t.Setenv("WEATHERLOG_STORE", storePath)
	t.Setenv("WEATHERLOG_NUMERIC_FIELD", "high")
	t.Setenv("WEATHERLOG_LOG_DIR", "")
	t.Setenv("WEATHERLOG_VERBOSE", "false")
	t.Setenv("WEATHERLOG_BACKUP_COMPRESSION", "zstd")
	t.Setenv("WEATHERLOG_BACKUP_TIMEOUT", "1s")
	return storePath
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUsage(t *testing.T) {
	code, out, errOut := runCmd(t)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, usage+"\n", out)
	assert.Equal(t, "", errOut)
}

func TestUnknownCommand(t *testing.T) {
	setupEnv(t)
	code, out, errOut := runCmd(t, "delete")
	assert.Equal(t, exitError, code)
	assert.Equal(t, "", out)
	assert.Equal(t, "unknown command: delete\n", errOut)
}

func TestInitAddListSummary(t *testing.T) {
	storePath := setupEnv(t)

	code, out, errOut := runCmd(t, "init")
	assert.Equal(t, exitOK, code, errOut)
	assert.Equal(t, "", out)
	d, err := os.ReadFile(storePath)
	assert.NoError(t, err)
	assert.Equal(t, "", string(d))

	adds := [][]string{
		{"add", "day=Mon", "condition=sunny", "high=10", "low=2"},
		{"add", "day=Tue"},
		{"add", "high=abc", "day=Wed"},
		{"add", "day=Thu", "high=5"},
	}
	for _, args := range adds {
		code, out, errOut = runCmd(t, args...)
		assert.Equal(t, exitOK, code, errOut)
		assert.Equal(t, "", out)
	}

	code, out, _ = runCmd(t, "list")
	assert.Equal(t, exitOK, code)
	exp := strings.Join([]string{
		"day=Mon|condition=sunny|high=10|low=2",
		"day=Tue|condition=|high=|low=",
		"day=Wed|condition=|high=abc|low=",
		"day=Thu|condition=|high=5|low=",
	}, "\n") + "\n"
	assert.Equal(t, exp, out)

	code, out, _ = runCmd(t, "summary")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "count=4, high_total=15\n", out)

	t.Setenv("WEATHERLOG_NUMERIC_FIELD", "none")
	code, out, _ = runCmd(t, "summary")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "count=4\n", out)

	code, out, _ = runCmd(t, "export")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, `"condition": "sunny"`)

	// init again empties the store
	code, _, _ = runCmd(t, "init")
	assert.Equal(t, exitOK, code)
	code, out, _ = runCmd(t, "list")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "", out)
}

func TestAddRejectsBadInput(t *testing.T) {
	storePath := setupEnv(t)
	tests := []struct {
		args []string
		msg  string
	}{
		{[]string{"add", "temp=5"}, "unknown field: temp"},
		{[]string{"add", "high=1|2"}, "invalid value"},
		{[]string{"add", "day=Mon", "badtoken"}, "invalid item: badtoken"},
	}
	for _, test := range tests {
		code, out, errOut := runCmd(t, test.args...)
		assert.Equal(t, exitError, code)
		assert.Equal(t, "", out)
		assert.Contains(t, errOut, test.msg)
		assert.Equal(t, 1, strings.Count(errOut, "\n"))
	}
	// nothing was appended
	_, err := os.Stat(storePath)
	assert.True(t, os.IsNotExist(err))
}

func TestListWithoutStore(t *testing.T) {
	setupEnv(t)
	code, out, errOut := runCmd(t, "list")
	assert.Equal(t, exitOK, code, errOut)
	assert.Equal(t, "", out)
	code, out, _ = runCmd(t, "summary")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "count=0, high_total=0\n", out)
}

func TestListMalformedStore(t *testing.T) {
	storePath := setupEnv(t)
	assert.NoError(t, os.MkdirAll(filepath.Dir(storePath), 0755))
	content := "day=Mon|condition=|high=1|low=\nday=Tue|oops\n"
	assert.NoError(t, os.WriteFile(storePath, []byte(content), 0644))
	for _, cmd := range []string{"list", "summary", "export"} {
		code, out, errOut := runCmd(t, cmd)
		assert.Equal(t, exitError, code)
		// no partial output
		assert.Equal(t, "", out)
		assert.Contains(t, errOut, "oops")
	}
}

func TestStoreIOError(t *testing.T) {
	dir := t.TempDir()
	setupEnv(t)
	// parent of the store is a file
	parent := filepath.Join(dir, "file")
	assert.NoError(t, os.WriteFile(parent, nil, 0644))
	t.Setenv("WEATHERLOG_STORE", filepath.Join(parent, "store.txt"))
	for _, args := range [][]string{{"init"}, {"add", "day=Mon"}} {
		code, _, errOut := runCmd(t, args...)
		assert.Equal(t, exitError, code)
		assert.Contains(t, errOut, "failed with")
	}
}

func TestConfigError(t *testing.T) {
	prev := loadConfig
	loadConfig = func() (*config.Config, error) {
		return nil, errors.New("bad config")
	}
	t.Cleanup(func() { loadConfig = prev })
	code, out, errOut := runCmd(t, "list")
	assert.Equal(t, exitError, code)
	assert.Equal(t, "", out)
	assert.Equal(t, "bad config\n", errOut)
}

func TestBackupNotConfigured(t *testing.T) {
	setupEnv(t)
	t.Setenv("WEATHERLOG_BACKUP_ENDPOINT", "")
	t.Setenv("WEATHERLOG_BACKUP_BUCKET", "")
	for _, cmd := range []string{"backup", "restore"} {
		code, _, errOut := runCmd(t, cmd)
		assert.Equal(t, exitError, code)
		assert.Contains(t, errOut, "backup not configured")
	}
	code, _, errOut := runCmd(t, "restore", "a", "b")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "at most one")
}

func TestBadBackupConfigOnlyFailsBackup(t *testing.T) {
	setupEnv(t)
	t.Setenv("WEATHERLOG_BACKUP_TIMEOUT", "-1s")
	for _, args := range [][]string{{"init"}, {"add", "day=Mon"}, {"list"}, {"summary"}} {
		code, _, errOut := runCmd(t, args...)
		assert.Equal(t, exitOK, code, errOut)
	}
	for _, cmd := range []string{"backup", "restore"} {
		code, _, errOut := runCmd(t, cmd)
		assert.Equal(t, exitError, code)
		assert.Contains(t, errOut, "WEATHERLOG_BACKUP_TIMEOUT")
	}

	t.Setenv("WEATHERLOG_BACKUP_TIMEOUT", "1s")
	t.Setenv("WEATHERLOG_BACKUP_COMPRESSION", "gzip")
	code, _, errOut := runCmd(t, "summary")
	assert.Equal(t, exitOK, code, errOut)
	code, _, errOut = runCmd(t, "backup")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "WEATHERLOG_BACKUP_COMPRESSION")
}

func TestVerboseLogsToStderr(t *testing.T) {
	setupEnv(t)
	t.Setenv("WEATHERLOG_VERBOSE", "true")
	code, out, errOut := runCmd(t, "add", "day=Mon")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "", out)
	assert.Contains(t, errOut, "flatstore: appended")

	code, _, errOut = runCmd(t, "add", "bad")
	assert.Equal(t, exitError, code)
	assert.Equal(t, 1, strings.Count(errOut, "invalid item"))
}

func TestLogDir(t *testing.T) {
	setupEnv(t)
	logDir := filepath.Join(t.TempDir(), "logs")
	t.Setenv("WEATHERLOG_LOG_DIR", logDir)
	code, _, _ := runCmd(t, "add", "day=Mon", "high=3")
	assert.Equal(t, exitOK, code)
	code, _, _ = runCmd(t, "add", "bad")
	assert.Equal(t, exitError, code)

	eventsDir := filepath.Join(logDir, "events")
	entries, err := os.ReadDir(eventsDir)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
	f, err := os.Open(filepath.Join(eventsDir, entries[0].Name()))
	assert.NoError(t, err)
	defer f.Close()
	var names []string
	var cmds []string
	r := siser.NewReader(f)
	for r.ReadNextData() {
		names = append(names, r.Name)
		if r.Name == "cmd" {
			cmds = append(cmds, string(r.Data))
		}
	}
	assert.NoError(t, r.Err())
	assert.Equal(t, 2, len(cmds), strings.Join(names, ","))
	assert.Contains(t, cmds[0], "durmicro")
	assert.Contains(t, cmds[1], "add")

	// failures go to the log file with a call stack
	logEntries, err := os.ReadDir(filepath.Join(logDir, "log"))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(logEntries))
	d, err := os.ReadFile(filepath.Join(logDir, "log", logEntries[0].Name()))
	assert.NoError(t, err)
	assert.Contains(t, string(d), "add failed with")
}
