// Package templates renders the page and its htmx fragments. Views are
// html/template blocks exposed as templ.Component so handlers can render
// them through one helper.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/csg33k/pledge-wall/internal/certificate"
	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/pledge"
)

type StatsView struct {
	Stats  domain.Stats
	Loaded bool
	Target int
}

type WallView struct {
	Rows   []pledge.WallRow
	Loaded bool
	Footer bool
}

type FormView struct {
	Draft        domain.Draft
	Error        string
	Catalog      []domain.Theme
	ProfileTypes []domain.ProfileType
}

type CertificateView struct {
	Certificate certificate.Certificate
	PledgeID    string
	PNGName     string
	PDFName     string
}

type PageView struct {
	Stats StatsView
	Wall  WallView
	Form  FormView
}

// NewStatsView builds the dashboard view from an aggregator snapshot.
func NewStatsView(s domain.Stats, loaded bool) StatsView {
	return StatsView{Stats: s, Loaded: loaded, Target: domain.Target}
}

// NewWallView builds the wall view from a wall snapshot.
func NewWallView(rows []domain.Pledge, loaded bool) WallView {
	return WallView{Rows: pledge.Rows(rows), Loaded: loaded, Footer: pledge.ShowFooter(rows)}
}

// NewFormView pairs a draft with its error message and the catalog.
func NewFormView(d domain.Draft, errMsg string) FormView {
	return FormView{Draft: d, Error: errMsg, Catalog: domain.Catalog, ProfileTypes: domain.ProfileTypes}
}

func NewCertificateView(c certificate.Certificate, pledgeID string) CertificateView {
	return CertificateView{
		Certificate: c,
		PledgeID:    pledgeID,
		PNGName:     certificate.Filename(c.Name, "png"),
		PDFName:     certificate.Filename(c.Name, "pdf"),
	}
}

func Page(v PageView) templ.Component { return component("page", v) }
func Stats(v StatsView) templ.Component { return component("stats", v) }
func Wall(v WallView) templ.Component { return component("wall", v) }
func Form(v FormView) templ.Component { return component("form", v) }
func Preview(v CertificateView) templ.Component { return component("certificate", v) }
func Error(msg string) templ.Component { return component("error", msg) }

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return views.ExecuteTemplate(w, name, data)
	})
}

var views = template.Must(template.New("views").Funcs(template.FuncMap{
	"thousands": thousands,
	"hearts":    hearts,
	"checked":   checked,
	"width":     width,
}).Parse(pageTmpl + statsTmpl + wallTmpl + formTmpl + certificateTmpl + errorTmpl))

const pageTmpl = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Climate Action Pledge</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"></script>
<script src="https://cdn.tailwindcss.com"></script>
<style>
  .htmx-request .when-idle { display: none; }
  .when-busy { display: none; }
  .htmx-request .when-busy { display: inline; }
  .heart { color: #f97316; }
</style>
<script>
  // Validation (422) and store (502) responses carry the re-rendered form.
  document.addEventListener("htmx:beforeSwap", function (evt) {
    if (evt.detail.xhr.status === 422 || evt.detail.xhr.status === 502) {
      evt.detail.shouldSwap = true;
      evt.detail.isError = false;
    }
  });
</script>
</head>
<body class="bg-white text-gray-900" hx-ext="sse" sse-connect="/events">

<section class="py-20 text-center bg-gradient-to-br from-blue-50 to-cyan-50">
  <h1 class="text-5xl font-bold mb-6">Take the Climate Action Pledge</h1>
  <p class="text-xl text-gray-700 mb-8">Small commitments, multiplied by millions, change the planet.</p>
  <a href="#pledge-form" class="bg-blue-600 text-white px-8 py-3 rounded-xl font-semibold">Take the Pledge</a>
</section>

<section class="py-16">
  <div class="max-w-6xl mx-auto px-4">
    <h2 class="text-4xl font-bold text-center mb-8">Live Impact Dashboard</h2>
    <div id="stats-panel" sse-swap="stats">{{template "stats" .Stats}}</div>
  </div>
</section>

<section id="pledge-form" class="py-20">
  <div class="max-w-4xl mx-auto px-4">
    <div class="text-center mb-12">
      <h2 class="text-4xl font-bold mb-4">Make Your Pledge</h2>
      <p class="text-xl text-gray-700">Join the movement for a sustainable future</p>
    </div>
    <div id="pledge-form-panel">{{template "form" .Form}}</div>
  </div>
</section>

<section id="pledge-wall" class="py-20 bg-gray-50">
  <div class="max-w-7xl mx-auto px-4">
    <div class="text-center mb-12">
      <h2 class="text-4xl font-bold mb-4">Wall of Climate Champions</h2>
      <p class="text-xl text-gray-700">Join these incredible individuals making a difference for our planet</p>
    </div>
    <div id="wall-panel" sse-swap="wall">{{template "wall" .Wall}}</div>
  </div>
</section>

</body>
</html>{{end}}`

const statsTmpl = `{{define "stats"}}
<div class="max-w-2xl mx-auto mb-12">
  <div class="bg-gray-100 rounded-full h-4 overflow-hidden">
    <div class="bg-gradient-to-r from-blue-500 to-cyan-600 h-full rounded-full" style="width: {{width (.Stats.ProgressWidth .Target)}}"></div>
  </div>
  <p class="text-sm text-gray-600 mt-2 text-center"><span data-percent>{{.Stats.PercentLabel .Target}}%</span> towards our goal</p>
</div>
<div class="grid grid-cols-1 md:grid-cols-4 gap-6">
  <div class="bg-slate-50 rounded-2xl p-6 shadow-lg"><div class="text-3xl font-bold" data-stat="target">{{thousands .Target}}</div><div class="text-sm text-gray-600">Target Pledges</div></div>
  <div class="bg-blue-50 rounded-2xl p-6 shadow-lg"><div class="text-3xl font-bold" data-stat="total">{{thousands .Stats.Total}}</div><div class="text-sm text-gray-600">Achieved Pledges</div></div>
  <div class="bg-amber-50 rounded-2xl p-6 shadow-lg"><div class="text-3xl font-bold" data-stat="students">{{thousands .Stats.Students}}</div><div class="text-sm text-gray-600">Students</div></div>
  <div class="bg-violet-50 rounded-2xl p-6 shadow-lg"><div class="text-3xl font-bold" data-stat="professionals">{{thousands .Stats.Professionals}}</div><div class="text-sm text-gray-600">Working Professionals</div></div>
</div>
{{end}}`

const wallTmpl = `{{define "wall"}}
{{if not .Loaded}}
<div class="text-center py-12"><p class="text-gray-600">Loading pledges...</p></div>
{{else if not .Rows}}
<div class="bg-white rounded-2xl p-12 text-center shadow-lg"><p class="text-xl text-gray-600">Be the first to take the pledge!</p></div>
{{else}}
<div class="bg-white rounded-2xl shadow-xl overflow-x-auto">
  <table class="w-full">
    <thead class="bg-gradient-to-r from-blue-600 to-cyan-600 text-white text-left text-sm uppercase">
      <tr><th class="px-6 py-4">Pledge ID</th><th class="px-6 py-4">Name</th><th class="px-6 py-4">Date</th><th class="px-6 py-4">State</th><th class="px-6 py-4">Profile</th><th class="px-6 py-4">Love for Planet</th></tr>
    </thead>
    <tbody class="divide-y divide-gray-200">
    {{range .Rows}}
      <tr class="hover:bg-blue-50" data-pledge="{{.ID}}">
        <td class="px-6 py-4 font-mono text-sm text-gray-600">{{.ShortID}}</td>
        <td class="px-6 py-4 font-semibold">{{.Name}}</td>
        <td class="px-6 py-4 text-sm text-gray-600">{{.Date}}</td>
        <td class="px-6 py-4 text-sm text-gray-600">{{.State}}</td>
        <td class="px-6 py-4"><span class="px-3 py-1 text-xs font-semibold rounded-full bg-blue-100 text-blue-800">{{.Profile}}</span></td>
        <td class="px-6 py-4">{{range hearts .Hearts}}<span class="heart">&#9829;</span>{{end}}<span class="ml-2 text-sm text-gray-600">({{.Count}})</span></td>
      </tr>
    {{end}}
    </tbody>
  </table>
  {{if .Footer}}<div class="bg-gray-50 px-6 py-4 text-center text-sm text-gray-600" data-footer>Showing the latest 50 pledges</div>{{end}}
</div>
{{end}}
{{end}}`

const formTmpl = `{{define "form"}}
<form hx-post="/pledges" hx-target="#pledge-form-panel" hx-swap="innerHTML" hx-disabled-elt="find button[type=submit]"
      class="bg-gradient-to-br from-blue-50 to-cyan-50 rounded-3xl p-8 shadow-xl">
  <div class="grid grid-cols-1 md:grid-cols-2 gap-6 mb-8">
    <label class="block text-sm font-semibold">Full Name <span class="text-red-500">*</span>
      <input type="text" name="name" required value="{{.Draft.Name}}" placeholder="Enter your full name" class="w-full px-4 py-3 rounded-xl border"></label>
    <label class="block text-sm font-semibold">Email Address <span class="text-red-500">*</span>
      <input type="email" name="email" required value="{{.Draft.Email}}" placeholder="your@email.com" class="w-full px-4 py-3 rounded-xl border"></label>
    <label class="block text-sm font-semibold">Mobile Number <span class="text-red-500">*</span>
      <input type="tel" name="mobile" required value="{{.Draft.Mobile}}" class="w-full px-4 py-3 rounded-xl border"></label>
    <label class="block text-sm font-semibold">State / Region
      <input type="text" name="state" value="{{.Draft.State}}" placeholder="Enter your state" class="w-full px-4 py-3 rounded-xl border"></label>
  </div>
  <fieldset class="mb-8">
    <legend class="text-sm font-semibold mb-3">Profile Type <span class="text-red-500">*</span></legend>
    <div class="grid grid-cols-1 md:grid-cols-3 gap-4">
    {{range .ProfileTypes}}
      <label class="flex items-center justify-center gap-2 p-4 rounded-xl border-2 bg-white cursor-pointer">
        <input type="radio" name="profile_type" value="{{.}}"{{if eq . $.Draft.ProfileType}} checked{{end}}> {{.}}
      </label>
    {{end}}
    </div>
  </fieldset>
  <div class="mb-8">
    <h3 class="text-2xl font-bold mb-4">Choose Your Commitments</h3>
    <p class="text-gray-700 mb-6">Select the climate-positive actions you pledge to take</p>
    {{range .Catalog}}
    <div class="mb-6 bg-white rounded-2xl p-6 shadow-md">
      <h4 class="text-lg font-bold mb-4">{{.Name}}</h4>
      {{range .Items}}
      <label class="flex items-start gap-3 cursor-pointer mb-2">
        <input type="checkbox" name="commitments" value="{{.}}"{{if checked $.Draft .}} checked{{end}}> <span>{{.}}</span>
      </label>
      {{end}}
    </div>
    {{end}}
  </div>
  <div class="bg-blue-50 border border-blue-200 rounded-xl p-4 mb-8 text-sm text-blue-900">
    <strong>Privacy Notice:</strong> Your mobile number and email are required for validation but will never be shown publicly. Your data is used only for verification and engagement purposes.
  </div>
  {{if .Error}}<div class="bg-red-50 border border-red-200 rounded-xl p-4 mb-6 text-red-700" role="alert">{{.Error}}</div>{{end}}
  <button type="submit" class="w-full bg-gradient-to-r from-blue-600 to-cyan-600 text-white py-4 rounded-xl font-bold text-lg disabled:opacity-50">
    <span class="when-idle">Submit My Pledge</span><span class="when-busy">Submitting...</span>
  </button>
</form>
{{end}}`

const certificateTmpl = `{{define "certificate"}}
<div class="bg-white rounded-3xl shadow-2xl overflow-hidden" data-certificate="{{.PledgeID}}">
  <div class="p-12 text-center border-8 border-blue-600 m-8 bg-blue-50">
    <h2 class="text-4xl font-bold text-blue-800 mb-2">CLIMATE ACTION PLEDGE</h2>
    <p class="text-2xl text-sky-500 mb-8">Certificate of Commitment</p>
    <p class="text-gray-700 mb-2">This certifies that</p>
    <p class="text-4xl font-bold text-blue-800 mb-2" data-name>{{.Certificate.Name}}</p>
    <p class="text-xl text-gray-700 mb-6">is Cool Enough to Care!</p>
    <p class="text-gray-700 mb-2">Has pledged to take</p>
    <p class="text-3xl font-bold text-blue-700 mb-4">{{.Certificate.Commitments}} Climate-Positive Actions</p>
    <div class="text-3xl mb-6"><span class="font-semibold text-gray-800">Love for Planet:</span> <span data-hearts="{{.Certificate.Hearts}}">{{range hearts .Certificate.Hearts}}<span class="heart">&#9829;</span>{{end}}</span></div>
    <div class="text-sm text-gray-600">{{.Certificate.Date}}</div>
  </div>
  <div class="p-8 flex flex-col sm:flex-row gap-4 justify-center">
    <a href="/pledges/{{.PledgeID}}/certificate.png" download="{{.PNGName}}" class="bg-blue-600 text-white px-8 py-3 rounded-xl font-semibold">Download Certificate</a>
    <a href="/pledges/{{.PledgeID}}/certificate.pdf" download="{{.PDFName}}" class="bg-cyan-600 text-white px-8 py-3 rounded-xl font-semibold">Download PDF</a>
    <button hx-post="/certificate/close" class="px-8 py-3 rounded-xl font-semibold text-gray-700 bg-gray-100">View Pledge Wall</button>
  </div>
</div>
{{end}}`

const errorTmpl = `{{define "error"}}<div class="bg-red-50 border border-red-200 rounded-xl p-4 text-red-700" role="alert">{{.}}</div>{{end}}`
