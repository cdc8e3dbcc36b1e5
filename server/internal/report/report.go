package report

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/growthlab/growthlab/pkg/types"
)

var funcs = template.FuncMap{
	"num":     formatNum,
	"fixed":   fixed,
	"limited": func(s types.Summary) bool { return s.Sufficiency == types.SufficiencyLimited },
	"high":    func(s types.Summary) bool { return s.Condition == types.ConditionHigh },
}

var summaryTmpl = template.Must(template.New("summary").Funcs(funcs).Parse(
	`## Data Analysis Results

**Temperature Threshold:** {{ num .Threshold }}°C

**Filtered Samples:** {{ .Count }} out of {{ .Total }} total samples

**Average Growth Rate:** {{ fixed .AvgGrowthRate 2 }} units

**Average Humidity:** {{ fixed .AvgHumidity 2 }}%

### Interpretation

{{ if limited . -}}
⚠️ **Limited data**: Only {{ .Count }} samples meet the threshold criterion.
{{- else -}}
✓ **Sufficient data**: {{ .Count }} samples available for analysis.
{{- end }}

{{ if high . -}}
🌡️ **High temperature conditions**: Growth rate is {{ fixed .AvgGrowthRate 1 }} units.
{{- else -}}
🌡️ **Moderate temperature conditions**: Growth rate is {{ fixed .AvgGrowthRate 1 }} units.
{{- end }}
`))

// About is the static footer shown under the analysis.
const About = "---\n" +
	"### About This Analysis\n\n" +
	"This interactive report demonstrates:\n" +
	"- **Variable Dependencies**: every output is derived from the dataset and the slider\n" +
	"- **Interactive Widgets**: the slider controls data filtering\n" +
	"- **Dynamic Content**: the summary updates whenever the slider moves\n" +
	"- **Data Flow**: data → filtering → summary and visualization\n\n" +
	"**Data Flow:**\n" +
	"```\n" +
	"dataset ──┐\n" +
	"          ├─> filtered ──> summary (markdown)\n" +
	"slider ───┘            └─> scatter plot\n" +
	"```\n"

// Markdown renders the summary block for s.
func Markdown(s types.Summary) (string, error) {
	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("report: render markdown: %w", err)
	}
	return buf.String(), nil
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts markdown source to an HTML fragment.
func HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("report: convert markdown: %w", err)
	}
	return buf.String(), nil
}

// formatNum prints integral thresholds without a decimal point.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fixed(v float64, prec int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
