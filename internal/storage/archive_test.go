package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestArchive_Store(t *testing.T) {
	tempDir := t.TempDir()
	archive := NewArchive(tempDir, zap.NewNop())

	t.Run("stores document under run folder", func(t *testing.T) {
		content := []byte("%PDF-1.4 payslip")

		err := archive.Store("run-001", "payslip_S-001.pdf", content)

		require.NoError(t, err)
		saved, err := os.ReadFile(filepath.Join(tempDir, "run-001", "payslip_S-001.pdf"))
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("overwrite keeps latest content", func(t *testing.T) {
		require.NoError(t, archive.Store("run-002", "export.xlsx", []byte("first")))
		require.NoError(t, archive.Store("run-002", "export.xlsx", []byte("second")))

		saved, err := os.ReadFile(filepath.Join(tempDir, "run-002", "export.xlsx"))
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), saved)
	})

	t.Run("traversal segments are neutralized", func(t *testing.T) {
		err := archive.Store("../outside", "../../escape.pdf", []byte("x"))

		require.NoError(t, err)
		assert.NoFileExists(t, filepath.Join(filepath.Dir(tempDir), "escape.pdf"))
		assert.True(t, archive.Exists("../outside", "../../escape.pdf"))
	})
}

func TestArchive_Exists(t *testing.T) {
	tempDir := t.TempDir()
	archive := NewArchive(tempDir, zap.NewNop())

	assert.False(t, archive.Exists("run-404", "payslip_S-001.pdf"))

	require.NoError(t, archive.Store("run-404", "payslip_S-001.pdf", []byte("x")))
	assert.True(t, archive.Exists("run-404", "payslip_S-001.pdf"))
}
