package reminder

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/k3a/html2text"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/notification"
)

var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body>
<p>Good day, Barangay {{.Barangay}}.</p>
<p>The following report submissions are still pending with the City Health Office:</p>
<table>
<tr><th>Reporting period</th><th>Due date</th><th>Status</th></tr>
{{- range .Facts}}
<tr><td>{{.ReportPeriod}}</td><td>{{.DueDate.Format "January 2, 2006"}}</td><td>{{.Describe}}</td></tr>
{{- end}}
</table>
<p>Please complete and submit them before their due dates.</p>
<p>City Health Office</p>
</body>
</html>`))

// Compose renders the digest for one barangay. It has no side effects and
// returns the same message for the same input.
func Compose(barangayName string, facts []Fact) notification.Message {
	overdue := 0
	for _, f := range facts {
		if f.Overdue() {
			overdue++
		}
	}

	subject := fmt.Sprintf("Pending report reminder: Barangay %s", barangayName)
	if overdue > 0 {
		subject = fmt.Sprintf("Overdue report reminder: Barangay %s (%d overdue)", barangayName, overdue)
	}

	var buf bytes.Buffer
	// Execute only fails on writer errors and bytes.Buffer has none.
	_ = digestTemplate.Execute(&buf, struct {
		Barangay string
		Facts    []Fact
	}{barangayName, facts})

	html := buf.String()
	return notification.Message{
		Subject: subject,
		HTML:    html,
		Text:    html2text.HTML2TextWithOptions(html, html2text.WithUnixLineBreaks()),
	}
}
