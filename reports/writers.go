package reports

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"
)

// WriteJSON writes the summary as an indented JSON document.
func WriteJSON(summary RunSummary, filePath string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(filePath, data, 0644) //nolint:gosec
}

// WriteHTML renders the summary as a standalone HTML page.
func WriteHTML(summary RunSummary, filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return reportTemplate.Execute(f, summary)
}

var reportTemplate = template.Must( //nolint:gochecknoglobals
	template.New("report").Funcs(template.FuncMap{
		"fmtDuration": func(d time.Duration) string {
			return fmt.Sprintf("%.2fs", d.Seconds())
		},
	}).Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Market data QA report ({{.Environment}})</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
h2 { font-size: 1.1em; margin-top: 1.5em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; font-size: 0.9em; }
th { background: #f0f0f0; }
.passed { color: #1a7f37; }
.failed { color: #cf222e; font-weight: bold; }
.skipped { color: #6e7781; }
pre { margin: 0.3em 0 0 0; font-size: 0.8em; white-space: pre-wrap; }
.totals span { margin-right: 1.5em; }
</style>
</head>
<body>
<h1>Market data QA report</h1>
<p class="totals">
<span>environment: <b>{{.Environment}}</b></span>
<span>started: {{.StartedAt.Format "2006-01-02 15:04:05 MST"}}</span>
<span>duration: {{fmtDuration .Duration}}</span>
</p>
<p class="totals">
<span>total: <b>{{.Total}}</b></span>
<span class="passed">passed: {{.Passed}}</span>
<span class="failed">failed: {{.Failed}}</span>
<span class="skipped">skipped: {{.Skipped}}</span>
</p>
{{range .Suites}}
<h2>{{.Name}} ({{.Passed}} passed, {{.Failed}} failed, {{.Skipped}} skipped)</h2>
<table>
<tr><th>test</th><th>status</th><th>duration</th><th>detail</th></tr>
{{range .Tests}}
<tr>
<td>{{.Name}}</td>
<td class="{{.Status}}">{{.Status}}</td>
<td>{{fmtDuration .Duration}}</td>
<td>
{{- range .Errors}}<pre>{{.}}</pre>{{end -}}
{{- if .SkipReason}}<pre>{{.SkipReason}}</pre>{{end -}}
</td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`
