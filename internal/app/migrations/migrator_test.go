package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "001", versionOf("migrations/001_init.sql"))
	assert.Equal(t, "010", versionOf("/abs/010_add_exam_marks_index.sql"))
	assert.Equal(t, "noversion.sql", versionOf("noversion.sql"))
}

func TestCollectSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	files, err := collectSQLFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "001_a.sql"), filepath.Join(dir, "002_b.sql")}, files)

	_, err = collectSQLFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestInitMigrationUsesNamedConstraints(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	sql := string(content)

	for _, name := range []string{
		"users_user_id_key",
		"users_email_key",
		"students_student_id_key",
		"students_roll_no_class_section_year_key",
		"fee_structures_session_year_class_key",
		"transactions_receipt_id_key",
		"admins_user_ref_key",
		"exam_marks_exam_student_subject_key",
	} {
		assert.Contains(t, sql, name)
	}
}
