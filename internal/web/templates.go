package web

import "html/template"

const baseCSS = `
body { font-family: system-ui, sans-serif; margin: 0; color: #1d1d1f; }
header, main, footer { padding: 1rem 1.5rem; }
header { border-bottom: 1px solid #ddd; display: flex; gap: 1rem; align-items: baseline; }
.indicator { font-family: ui-monospace, monospace; padding: .1rem .4rem; border-radius: 4px; }
.indicator.pass { background: #d7f5dd; }
.indicator.fail { background: #fbe0e0; }
.message { white-space: pre-wrap; font-family: ui-monospace, monospace; }
.layout-default #widget { max-width: 640px; }
.layout-wide #widget { max-width: 1024px; }
.layout-full #widget { max-width: none; }
nav a { margin-right: 1rem; }
`

const listHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>taskbench</title>
<style>` + baseCSS + `</style>
</head>
<body>
<header><h1>taskbench</h1><span>{{len .}} tasks</span></header>
<main>
<ol id="tasks">
{{- range .}}
<li value="{{.ID}}"><a href="{{.URL}}">{{.Name}}</a>{{if not .Graded}} <em>(ungraded)</em>{{end}}</li>
{{- end}}
</ol>
</main>
</body>
</html>
`

const taskHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Task.Name}} - taskbench</title>
<style>` + baseCSS + `</style>
</head>
<body class="layout-{{.Task.Layout}}">
{{- if not .TestMode}}
<header>
<a href="/">All tasks</a>
<h1>{{.Task.Name}}</h1>
<span>{{.Position}} / {{.Total}}</span>
{{- if .ShowVerdict}}
<span id="indicator" class="indicator {{if .Verdict}}{{if .Verdict.Success}}pass{{else}}fail{{end}}{{end}}">{{.Indicator}}</span>
{{- end}}
</header>
<section id="instructions">
<p>{{.Task.Instructions}}</p>
{{- if .Task.Hint}}
<p class="hint">{{.Task.Hint}}</p>
{{- end}}
</section>
{{- end}}
<main>
<div id="widget" data-task="{{.Task.ID}}" data-component="{{.Task.Component}}"></div>
</main>
{{- if not .TestMode}}
{{- if .ShowSubmit}}
<section id="submission">
<form id="submit-form">
<textarea name="result" rows="4" cols="60"></textarea>
<button type="submit">Submit</button>
</form>
</section>
{{- end}}
{{- if .ShowVerdict}}
<pre id="message" class="message">{{if .Verdict}}{{.Verdict.Message}}{{end}}</pre>
{{- end}}
<footer>
<nav>
{{- if .Prev}}<a id="prev" href="{{.Prev.URL}}">&larr; {{.Prev.Name}}</a>{{end}}
{{- if .Next}}<a id="next" href="{{.Next.URL}}">{{.Next.Name}} &rarr;</a>{{end}}
</nav>
</footer>
<script>
(function () {
  var form = document.getElementById("submit-form");
  if (form) {
    form.addEventListener("submit", function (ev) {
      ev.preventDefault();
      fetch("/api/submission", {method: "POST", body: form.result.value})
        .then(function () { form.reset(); });
    });
  }
  var indicator = document.getElementById("indicator");
  if (!indicator) { return; }
  var message = document.getElementById("message");
  function show(v) {
    if (v.task_id !== {{.Task.ID}}) { return; }
    indicator.textContent = v.indicator;
    indicator.className = "indicator " + (v.success ? "pass" : "fail");
    if (message) { message.textContent = v.message || ""; }
  }
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  // Transitions reported before the socket opened are not replayed.
  ws.onopen = function () {
    fetch("/api/verdict")
      .then(function (res) { return res.ok ? res.json() : null; })
      .then(function (v) { if (v) { show(v); } });
  };
  ws.onmessage = function (ev) { show(JSON.parse(ev.data)); };
})();
</script>
{{- end}}
</body>
</html>
`

var (
	listTemplate = template.Must(template.New("list").Parse(listHTML))
	taskTemplate = template.Must(template.New("task").Parse(taskHTML))
)
