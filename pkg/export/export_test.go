package export

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	grade := 7.5
	var missing *float64
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "", FormatValue(missing))
	assert.Equal(t, "7.50", FormatValue(&grade))
	assert.Equal(t, "0.50", FormatValue(0.5))
	assert.Equal(t, "3", FormatValue(3))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "2024-05-01T08:00:00Z", FormatValue(ts))
	assert.Equal(t, "2024-05-01T08:00:00Z", FormatValue(ts.In(time.FixedZone("WIB", 7*3600))))
}

func TestForFormat(t *testing.T) {
	r, ok := ForFormat(" CSV ")
	require.True(t, ok)
	assert.Equal(t, "text/csv", r.ContentType())

	r, ok = ForFormat("pdf")
	require.True(t, ok)
	assert.Equal(t, "pdf", r.Extension())

	_, ok = ForFormat("xlsx")
	assert.False(t, ok)
	assert.Equal(t, []string{"csv", "pdf"}, Formats())
}

func TestCSVRendererUsesLabels(t *testing.T) {
	data := FromRecords("", []Column{{Key: "name", Label: "Course"}, {Key: "tasks_count"}},
		[]map[string]interface{}{{"name": "Go", "tasks_count": 4}})
	out, err := CSVRenderer{}.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Course,tasks_count\nGo,4\n", string(out))
}

func TestRenderersRequireColumns(t *testing.T) {
	_, err := CSVRenderer{}.Render(Dataset{})
	assert.Error(t, err)
	_, err = PDFRenderer{}.Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRendererSpansPages(t *testing.T) {
	records := make([]map[string]interface{}, 0, 120)
	for i := 0; i < 120; i++ {
		records = append(records, map[string]interface{}{"name": fmt.Sprintf("Course %d", i)})
	}
	data := FromRecords("Teacher summary", []Column{{Key: "name", Label: "Course"}}, records)

	out, err := PDFRenderer{}.Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
