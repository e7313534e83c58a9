package applications

import (
	"bytes"
	"html/template"
)

var documentTemplate = template.Must(template.New("application").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 40px; color: #1a1a2e; }
h1 { border-bottom: 2px solid #0f3460; padding-bottom: 8px; }
table { border-collapse: collapse; width: 100%; margin-top: 24px; }
td { border: 1px solid #ccc; padding: 8px 12px; }
td.label { width: 35%; font-weight: bold; background: #f5f5f5; }
.footer { margin-top: 48px; font-size: 11px; color: #666; }
</style>
</head>
<body>
<h1>Aegis Life — Policy Application</h1>
<table>
<tr><td class="label">Application ID</td><td>{{.ID}}</td></tr>
<tr><td class="label">Applicant</td><td>{{.ApplicantName}} ({{.ApplicantEmail}})</td></tr>
<tr><td class="label">Address</td><td>{{.ApplicantAddress}}</td></tr>
<tr><td class="label">Policy</td><td>{{.PolicyTitle}}</td></tr>
<tr><td class="label">Coverage</td><td>{{.CoverageAmount}}</td></tr>
<tr><td class="label">Nominee</td><td>{{.NomineeName}} ({{.NomineeRelationship}})</td></tr>
<tr><td class="label">Assigned Agent</td><td>{{.AgentName}}</td></tr>
<tr><td class="label">Status</td><td>{{.Status}}</td></tr>
<tr><td class="label">Submitted</td><td>{{.SubmittedAt.Format "2 January 2006"}}</td></tr>
</table>
<p class="footer">This document certifies the application as recorded by Aegis Life. It is not the policy contract.</p>
</body>
</html>`))

func documentHTML(app *Application) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, app); err != nil {
		return "", err
	}
	return buf.String(), nil
}
