package view

import (
	"html/template"
	"io"
)

var page = template.Must(template.New("popup").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>LinkCart</title>
<style>
body { font-family: sans-serif; width: 420px; margin: 8px; }
.link { display: flex; justify-content: space-between; border-bottom: 1px solid #ddd; padding: 4px 0; }
.link-title { font-weight: bold; margin: 0; }
.link-desc { margin: 0; font-size: 12px; word-break: break-all; }
.notice { background: #fff4c2; padding: 4px; }
.error { color: #b00020; }
</style>
</head>
<body>
<div class="actions">
  <form method="post" action="/ui/add">
    <input type="url" name="url" placeholder="https://shop.example/item" required>
    <button id="newLinkBtn" type="submit">Add</button>
  </form>
  <form method="post" action="/export.csv">
    <button id="exportBtn" type="submit">Export</button>
  </form>
  <form method="post" action="/ui/clear" onsubmit="return confirm('Delete all links?')">
    <input type="hidden" name="confirm" value="yes">
    <button id="deleteAllBtn" type="submit">Delete all</button>
  </form>
</div>
{{with .Notice}}<p class="notice">{{.}}</p>{{end}}
<div class="links-container">
{{- if .Error}}
  <p class="error">{{.Error}}</p>
{{- else if .Empty}}
  <div class="noLinkFound"><p>{{.Message}}</p></div>
{{- else}}
{{- range .Rows}}
  <div class="link">
    <div class="link-context">
      <p class="link-title">{{.Key}}</p>
      <p class="link-desc"><a href="{{.Link}}">{{.Link}}</a></p>
      <p class="link-desc">{{.Title}}</p>
      {{with .ProductName}}<p class="link-desc">{{.}}</p>{{end}}
      <p class="link-desc">{{.Price}}</p>
      {{with .CountLabel}}<p class="link-desc">{{.}}</p>{{end}}
      <p class="link-desc">{{if .ImageURL}}<img src="{{.ImageURL}}" width="30" height="30">{{else}}{{.ImageAlt}}{{end}}</p>
    </div>
    <div class="link-button">
      <form method="post" action="/ui/delete/{{.Key}}">
        <button class="link-delete" title="Delete" type="submit">&#128465;</button>
      </form>
    </div>
  </div>
{{- end}}
{{- end}}
</div>
</body>
</html>
`))

func Render(w io.Writer, m Model) error {
	return page.Execute(w, m)
}
