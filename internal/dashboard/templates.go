package dashboard

import (
	"html/template"

	"github.com/calldash/server/internal/analytics"
)

var funcs = template.FuncMap{
	"minutes": analytics.FormatMinutes,
	"selected": func(a, b string) template.HTMLAttr {
		if a == b {
			return "selected"
		}
		return ""
	},
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#0d1117;color:#c9d1d9}
a{color:#58a6ff}
.layout{display:flex;min-height:100vh}
aside{width:260px;padding:1rem;background:#161b22;border-right:1px solid #30363d}
main{flex:1;padding:1.5rem;overflow-x:auto}
label{display:block;margin:.75rem 0 .25rem;font-size:.85rem;color:#8b949e}
input,select,button{width:100%;padding:.4rem;background:#0d1117;color:#c9d1d9;border:1px solid #30363d;border-radius:4px}
button{margin-top:1rem;background:#238636;border:none;cursor:pointer}
.tiles{display:flex;gap:1rem;flex-wrap:wrap;margin:1rem 0}
.tile{flex:1;min-width:150px;background:#161b22;border:1px solid #30363d;border-radius:6px;padding:.75rem}
.tile .v{font-size:1.5rem;font-weight:600}
.tile .k{font-size:.8rem;color:#8b949e}
table{border-collapse:collapse;width:100%;margin:.5rem 0 1.5rem;font-size:.85rem}
th,td{border-bottom:1px solid #30363d;padding:.35rem .5rem;text-align:left}
.warn{background:#3d2e00;border:1px solid #9e6a03;padding:.75rem;border-radius:6px;margin:1rem 0}
.err{background:#3c1618;border:1px solid #f85149;padding:.75rem;border-radius:6px;margin:1rem 0}
img.chart{max-width:100%;background:#fff;border-radius:6px;margin:.5rem 0 1.5rem}
`

var loginTmpl = template.Must(template.New("login").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}} - Login</title><style>` + styles + `
.box{max-width:320px;margin:10vh auto;background:#161b22;padding:1.5rem;border:1px solid #30363d;border-radius:6px}
</style></head>
<body><div class="box">
<h2>{{.Title}}</h2>
{{with .Error}}<div class="err">{{.}}</div>{{end}}
<form method="post" action="/login">
<label for="username">Username</label><input id="username" name="username" autocomplete="username">
<label for="password">Password</label><input id="password" name="password" type="password" autocomplete="current-password">
<button type="submit">Log in</button>
</form>
</div></body></html>`))

var pageTmpl = template.Must(template.New("dashboard").Funcs(funcs).Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title><style>` + styles + `</style></head>
<body><div class="layout">
<aside>
<h3>Filters</h3>
<form method="get" action="/">
<label for="range">Date range</label>
<select id="range" name="range">
{{- range .Presets}}<option value="{{.}}" {{selected (print .) (print $.Filters.Preset)}}>{{.}}</option>{{end}}
</select>
<label for="start">Start date (Custom)</label><input id="start" name="start" type="date" value="{{.Filters.Start}}">
<label for="end">End date (Custom)</label><input id="end" name="end" type="date" value="{{.Filters.End}}">
<label for="nurse">Nurse</label>
<select id="nurse" name="nurse">
<option value="">All Nurses</option>
{{- range .Nurses}}<option value="{{.Key}}" {{selected .Key $.Filters.Nurse}}>{{.Name}}</option>{{end}}
</select>
<label for="clock_in">Clock in</label><input id="clock_in" name="clock_in" type="time" value="{{.Filters.ClockIn}}">
<label for="clock_out">Clock out</label><input id="clock_out" name="clock_out" type="time" value="{{.Filters.ClockOut}}">
<button type="submit">Apply</button>
</form>
<form method="post" action="/logout"><button type="submit">Log out{{with .Username}} ({{.}}){{end}}</button></form>
</aside>
<main>
<h1>{{.Title}}</h1>
{{- with .Error}}<div class="err">{{.}}</div>{{end}}

{{- with .Overall}}
<h2>All Nurses &middot; {{.Range}}</h2>
{{- if .Empty}}
<div class="warn">No call data found for the selected date range.</div>
{{- else}}
{{template "tiles" .Tiles}}
{{with index $.Charts "daily-volume"}}<img class="chart" alt="Daily call volume" src="{{.}}"><br><a href="/charts/daily-volume.png?{{$.Filters.Query}}">Download PNG</a>{{end}}
<h3>Total Talk Time per Day</h3>
<table><tr><th>Date</th><th>Talk Time</th></tr>
{{- range .DailyTalkTime}}<tr><td>{{.Date}}</td><td>{{minutes .Minutes}}</td></tr>{{end}}
</table>
{{with index $.Charts "nurse-outcomes"}}<img class="chart" alt="Call outcomes per nurse" src="{{.}}"><br><a href="/charts/nurse-outcomes.png?{{$.Filters.Query}}">Download PNG</a>{{end}}
<h3>Missed Inbound Calls</h3>
{{- if .MissedInbound}}{{template "calls" .MissedInbound}}{{else}}<p>No missed inbound calls.</p>{{end}}
{{- end}}
{{- end}}

{{- with .Nurse}}
<h2>{{.Nurse.Name}} &middot; {{.Range}} &middot; {{.ClockIn}}-{{.ClockOut}}</h2>
{{- if .NoCalls}}
<div class="warn">No call data found for {{.Nurse.Name}} in the selected date range.</div>
{{- else if .Empty}}
<div class="warn">No weekday calls found between {{.ClockIn}} and {{.ClockOut}}.</div>
{{- else}}
{{template "tiles" .Tiles}}
<h3>Missed Inbound Calls</h3>
{{- if .MissedInbound}}{{template "calls" .MissedInbound}}{{else}}<p>No missed inbound calls.</p>{{end}}
{{- with .Longest}}
<h3>Longest Call</h3>
<p>{{.Start}} to {{.End}} ({{.Duration}}, {{.Direction}})</p>
{{- end}}
<h3>Gaps Over {{.GapAnalysis.Threshold}} Minutes ({{.GapAnalysis.FlagCount}})</h3>
{{- if .Gaps}}
<table><tr><th>Previous Call End</th><th>Next Call Start</th><th>Gap</th></tr>
{{- range .Gaps}}<tr><td>{{.PreviousEnd}}</td><td>{{.CurrentStart}}</td><td>{{minutes .Minutes}}</td></tr>{{end}}
</table>
{{- else}}<p>No gaps over the threshold.</p>{{end}}
<p>Total call time: {{minutes .GapAnalysis.TotalCallMin}}</p>
{{with index $.Charts "daily-outcomes"}}<img class="chart" alt="Daily call outcomes" src="{{.}}"><br><a href="/charts/daily-outcomes.png?{{$.Filters.Query}}">Download PNG</a>{{end}}
{{with index $.Charts "avg-duration"}}<img class="chart" alt="Average call duration per day" src="{{.}}"><br><a href="/charts/avg-duration.png?{{$.Filters.Query}}">Download PNG</a>{{end}}
{{with index $.Charts "gap-distribution"}}<img class="chart" alt="Gap distribution" src="{{.}}"><br><a href="/charts/gap-distribution.png?{{$.Filters.Query}}">Download PNG</a>{{end}}
<h3>All Calls</h3>
{{template "calls" .Logs}}
{{- end}}
{{- end}}
</main>
</div></body></html>

{{define "tiles"}}<div class="tiles">
<div class="tile"><div class="v">{{.TotalCalls}}</div><div class="k">Total Calls</div></div>
<div class="tile"><div class="v">{{.AnsweredCalls}}</div><div class="k">Answered Calls</div></div>
<div class="tile"><div class="v">{{.MissedInbound}}</div><div class="k">Missed Inbound Calls</div></div>
<div class="tile"><div class="v">{{.TalkTime}}</div><div class="k">Total Talk Time</div></div>
<div class="tile"><div class="v">{{.AvgDuration}}</div><div class="k">Avg Call Duration</div></div>
</div>{{end}}

{{define "calls"}}<table>
<tr><th>Start</th><th>End</th><th>Duration</th><th>Direction</th><th>Nurse</th><th>Caller</th><th>Callee</th></tr>
{{- range .}}<tr><td>{{.Start}}</td><td>{{.End}}</td><td>{{.Duration}}</td><td>{{.Direction}}</td><td>{{.Nurse}}</td><td>{{.Caller}}</td><td>{{.Callee}}</td></tr>{{end}}
</table>{{end}}
`))
