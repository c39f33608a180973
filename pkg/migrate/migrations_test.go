package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanai/mumul-backend/pkg/migrate"
)

func TestMigrationsDirectoryIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestMigrationsContainSchemaConstraints(t *testing.T) {
	cases := map[string][]string{
		"*_create_users_and_stores.sql": {
			"CREATE TABLE IF NOT EXISTS users",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_stores_slug",
			"FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE",
		},
		"*_create_menus.sql": {
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_menus_store_number ON menus (store_id, menu_number)",
			"CHECK (price >= 0)",
		},
		"*_create_publics.sql": {
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_public_departments_public_name",
			"REFERENCES public_departments(id) ON DELETE SET NULL",
		},
		"*_create_edits_and_complaints.sql": {
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_public_complaints_complaint_number",
			"CHECK (status IN ('접수', '처리 중', '완료'))",
			"CHECK ((user_id IS NULL) <> (public_user_id IS NULL))",
		},
		"*_create_question_logs_and_sequences.sql": {
			"CREATE TABLE IF NOT EXISTS sequences",
			"name text PRIMARY KEY",
		},
		"*_unique_question_logs_agent_id.sql": {
			"DELETE FROM question_logs a",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_question_logs_agent_id_unique ON question_logs (agent_id)",
		},
	}

	for pattern, checks := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil {
			t.Fatalf("glob %s: %v", pattern, err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %d", pattern, len(matches))
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		content := string(data)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Store Banner!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_store_banner.sql") {
		t.Fatalf("unexpected migration path %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "1_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail validation")
	}
}
