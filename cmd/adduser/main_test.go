package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "success.db")
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	args := []string{"-name", "Steh", "-email", "Steh@Email.com", "-password", "123456", "-cost", "4", "-db", dbPath}
	require.NoError(t, run(args, new(bytes.Buffer), stdout, stderr))

	assert.Contains(t, stdout.String(), "User steh@email.com created successfully with ID 1")
}

func TestRun_PromptsForPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prompt.db")
	stdout := new(bytes.Buffer)

	args := []string{"-name", "Steh", "-email", "steh@email.com", "-cost", "4", "-db", dbPath}
	require.NoError(t, run(args, strings.NewReader("123456\n"), stdout, new(bytes.Buffer)))

	assert.Contains(t, stdout.String(), "Password: ")
	assert.Contains(t, stdout.String(), "created successfully")
}

func TestRun_DuplicateEmail(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "duplicate.db")
	args := []string{"-name", "Steh", "-email", "steh@email.com", "-password", "123456", "-cost", "4", "-db", dbPath}

	require.NoError(t, run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)))

	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email is already registered")
}

func TestRun_EmptyPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	args := []string{"-name", "Steh", "-email", "steh@email.com", "-cost", "4", "-db", dbPath}

	err := run(args, strings.NewReader("   \n"), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Password is required")
}

func TestRun_MissingFlags(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	err := run([]string{"-password", "secret"}, new(bytes.Buffer), stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags")
	assert.Contains(t, stdout.String(), "Usage: adduser")
}
