package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCSV(t *testing.T) {
	data, err := RenderCSV(Table{
		Headers: []string{"student", "debt"},
		Rows:    [][]string{{"Aliyev Timur", "150.00"}, {"Karimova Dilnoza", "0.00"}},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "student,debt", lines[0])
	assert.Equal(t, "Aliyev Timur,150.00", lines[1])
}

func TestRenderCSVRejectsRaggedRows(t *testing.T) {
	_, err := RenderCSV(Table{Headers: []string{"a", "b"}, Rows: [][]string{{"only one"}}})
	require.Error(t, err)
}

func TestRenderCSVRequiresHeaders(t *testing.T) {
	_, err := RenderCSV(Table{})
	require.Error(t, err)
}

func TestRenderPDFProducesDocument(t *testing.T) {
	data, err := RenderPDF(Table{
		Title:   "Monthly Debt Summary",
		Headers: []string{"student", "debt"},
		Rows:    [][]string{{"Aliyev Timur", "150.00"}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}
