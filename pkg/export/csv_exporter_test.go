package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	data := Dataset{
		Headers: []string{"Student Code", "Final Grade"},
		Rows: []map[string]string{
			{"Student Code": "S001", "Final Grade": "14.50"},
			{"Student Code": "S002", "Final Grade": ""},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Student Code,Final Grade\nS001,14.50\nS002,\n", string(out))
}

func TestCSVExporterRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}
