package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReminderMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_reminder_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no reminder migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS reminder_settings",
		"CREATE TABLE IF NOT EXISTS reminder_history",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_reminder_settings_company_type",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_reminder_history_sent",
		"WHERE status = 'sent'",
		"DROP TABLE IF EXISTS reminder_history",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
