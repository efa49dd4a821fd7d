package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"chartgen/internal/models"
)

// GenericDescription is used for chart types without a dedicated paragraph.
const GenericDescription = "CHART\n"

var descriptions = map[string]string{
	"bar": "BAR GRAPH\nA bar chart provides a way of showing data values represented as vertical bars. " +
		"It is sometimes used to show trend data, and the comparison of multiple data sets side by side.\n",
	"line": "LINE CHART\nA line chart is a way of plotting data points on a line. " +
		"Often, it is used to show trend data, or the comparison of two data sets.\n",
	"pie":      pieDescription,
	"doughnut": pieDescription,
	"radar": "RADAR CHART\nA radar chart is a way of showing multiple data points and the variation between them. " +
		"They are often useful for comparing the points of two or more different data sets.\n",
	"polararea": "POLAR AREA CHART\nPolar area charts are similar to pie charts, but each segment has the same angle - " +
		"the radius of the segment differs depending on the value.\n",
	"bubble": "BUBBLE CHART\nA bubble chart is used to display three dimensions of data at the same time. " +
		"The location of the bubble is determined by the first two dimensions and the corresponding horizontal and vertical axes. " +
		"The third dimension is represented by the size of the individual bubbles.\n",
	"scatter": "SCATTER CHART\nScatter charts are based on basic line charts with the x-axis changed to a linear axis. " +
		"Data must be passed as objects containing X and Y properties.\n",
	"area": "AREA CHART\nBoth line and radar charts support a fill option on the dataset object which can be used to create space " +
		"between two datasets or a dataset and a boundary, i.e. the scale origin, start, or end.\n",
	"mixed": "MIXED CHART\nWith Chart.js, it is possible to create mixed charts that are a combination of two or more different chart types. " +
		"A common example is a bar chart that also includes a line dataset.\n",
}

const pieDescription = "PIE/DOUGHNUT CHART\nPie and doughnut charts are used to show the proportional value of each piece of data. " +
	"They are excellent at showing the relational proportions between data.\n"

// keywords is the display order used by the upload form.
var keywords = []string{"bar", "line", "pie", "doughnut", "radar", "polarArea", "bubble", "scatter", "area", "mixed"}

var promptTemplate = template.Must(template.New("prompt").Parse(`
Using the following details:
- Chart Type: {{.ChartType}}
- Labels: {{.Labels}}
- Data: {{.Data}}

{{.Description}}
Generate the best configuration code for creating a styled and interactive Chart.js chart.
The configuration should include:
- Responsive design
- A legend positioned at the top
- A title at the top of the chart that says "Generated Chart"
- Properly formatted scales for the X and Y axes, with the Y-axis starting at zero.

Return only the JavaScript code for the chart configuration, without any backticks or additional content.
`))

// Keywords lists the recognised chart-type keywords.
func Keywords() []string {
	out := make([]string, len(keywords))
	copy(out, keywords)
	return out
}

// Description returns the paragraph for chartType, matching case-insensitively.
// Unknown keywords get GenericDescription.
func Description(chartType string) string {
	if d, ok := descriptions[strings.ToLower(strings.TrimSpace(chartType))]; ok {
		return d
	}
	return GenericDescription
}

// Known reports whether chartType has a dedicated description.
func Known(chartType string) bool {
	_, ok := descriptions[strings.ToLower(strings.TrimSpace(chartType))]
	return ok
}

// Build renders the model prompt for the table and chart type.
func Build(chartType string, table *models.Table) (string, error) {
	if table == nil {
		return "", fmt.Errorf("build prompt: table is nil")
	}
	labels, err := json.Marshal(nonNilLabels(table.Labels))
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}
	data, err := json.Marshal(nonNilSeries(table.Series))
	if err != nil {
		return "", fmt.Errorf("encode series: %w", err)
	}

	var buf bytes.Buffer
	err = promptTemplate.Execute(&buf, struct {
		ChartType   string
		Labels      string
		Data        string
		Description string
	}{
		ChartType:   chartType,
		Labels:      string(labels),
		Data:        string(data),
		Description: Description(chartType),
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

func nonNilLabels(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}

func nonNilSeries(series [][]any) [][]any {
	if series == nil {
		return [][]any{}
	}
	return series
}
