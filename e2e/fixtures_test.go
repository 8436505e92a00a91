//go:build e2e && unix

package main

import (
	"os"
	"path/filepath"
)

// CreateTestWorkspace creates an isolated HOME for the app. Config, logs,
// uploads and the recent-query db all land under it.
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	tmpDir := tf.t.TempDir()
	tf.workspace = tmpDir
	return tmpDir, nil
}

// CreateFile writes a file into the workspace and returns its path
func (tf *TUITestFramework) CreateFile(name, contents string) (string, error) {
	path := filepath.Join(tf.workspace, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// SetEnv adds COURIER_* overrides for the next StartApp
func (tf *TUITestFramework) SetEnv(kv ...string) {
	tf.env = append(tf.env, kv...)
}

// UploadsDir is where the local storage provider writes by default
func (tf *TUITestFramework) UploadsDir() string {
	return filepath.Join(tf.workspace, ".config", "courier", "uploads")
}
