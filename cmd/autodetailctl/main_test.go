package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/database"
	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/pkg/crypto"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ctl.sqlite")
	content := fmt.Sprintf("server:\n  log_level: error\ndatabase:\n  driver: sqlite\n  path: %s\n", filepath.ToSlash(dbPath))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateAndPromote(t *testing.T) {
	dir, dbPath := writeConfig(t)

	out, err := execute(t, "migrate", "--config", dir)
	require.NoError(t, err)
	require.Contains(t, out, "database migrated")

	db, err := database.Open(database.Config{Driver: "sqlite", Path: dbPath})
	require.NoError(t, err)
	hash, err := crypto.HashPassword("Secret123!")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Account{
		DisplayName:  "Promoted",
		Email:        "promoted@example.com",
		PasswordHash: hash,
		Role:         models.RoleUser,
	}).Error)
	require.NoError(t, database.Close(db))

	out, err = execute(t, "promote", "Promoted@Example.com", "--config", dir)
	require.NoError(t, err)
	require.Contains(t, out, "promoted@example.com is now an admin")

	db, err = database.Open(database.Config{Driver: "sqlite", Path: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	var account models.Account
	require.NoError(t, db.Where("email = ?", "promoted@example.com").Take(&account).Error)
	require.Equal(t, models.RoleAdmin, account.Role)

	_, err = execute(t, "promote", "ghost@example.com", "--config", dir)
	require.Error(t, err)
}

func TestPromoteRequiresEmail(t *testing.T) {
	_, err := execute(t, "promote")
	require.Error(t, err)
}

func TestCleanupReportsStats(t *testing.T) {
	dir, _ := writeConfig(t)

	out, err := execute(t, "cleanup", "--config", dir)
	require.NoError(t, err)
	require.Contains(t, out, "reset tokens removed:   0")
	require.Contains(t, out, "audit logs removed:     0")
}
