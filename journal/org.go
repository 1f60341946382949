package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "(none)"
		}
		return t.UTC().Format(timeLayout)
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(OrgTemplate))

// RenderOrg writes the run as an org-mode entry.
func (r *Run) RenderOrg(w io.Writer) error {
	return orgTemplate.Execute(w, r)
}

// WriteOrg renders the run to r.OrgPath.
func (r *Run) WriteOrg() error {
	if r.OrgPath == "" {
		return fmt.Errorf("run %s: no org path", r.RunID)
	}
	buf := new(bytes.Buffer)
	if err := r.RenderOrg(buf); err != nil {
		return err
	}
	return os.WriteFile(r.OrgPath, buf.Bytes(), 0644)
}

const OrgTemplate = `* EQUITY: {{.TradeLog}} {{if .BarSize}}{{.BarSize}}{{else}}(bar?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:TRADE_LOG:   {{.TradeLog}}
:BAR_SIZE:    {{.BarSize}}
:ORIGIN:      {{stamp .Origin}}
:START:       {{stamp .Start}}
:END_TIME:    {{stamp .End}}
:INSTRUMENTS: {{range $i, $s := .Instruments}}{{if $i}} {{end}}{{$s}}{{end}}
:EVENTS:      {{.Events}}
:FICTITIOUS:  {{.FictitiousDropped}}
:BARS:        {{.Bars}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Summary
| Metric           | Value |
|------------------+-------|
| Final equity     | {{printf "%.2f" .FinalEquity}} |
| Realized profit  | {{printf "%.2f" .FinalRealized}} |
| Min equity       | {{printf "%.2f" .MinEquity}} |
| Max equity       | {{printf "%.2f" .MaxEquity}} |
| Max drawdown     | {{printf "%.2f" .MaxDrawdown}} |
| Max drawdown %   | {{printf "%.2f" (mul100 .MaxDrawdownPct)}} |
| Commission       | {{printf "%.2f" .TotalCommission}} |
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
