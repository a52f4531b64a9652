package services

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"userflow-service/internal/auth"
	"userflow-service/internal/conversion"
	"userflow-service/internal/models"
	"userflow-service/internal/repository"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// typstEscaper escapes characters with markup meaning inside content blocks.
var typstEscaper = strings.NewReplacer(
	`\`, `\\`,
	`[`, `\[`,
	`]`, `\]`,
	`#`, `\#`,
	`$`, `\$`,
	`"`, `\"`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`@`, `\@`,
	`<`, `\<`,
	`>`, `\>`,
	`/`, `\/`,
	`~`, `\~`,
)

var documentTemplate = template.Must(template.New("flow").Funcs(template.FuncMap{
	"esc":    escapeTypst,
	"plural": plural,
	"inc":    func(i int) int { return i + 1 },
}).Parse(`#set page(
  paper: "us-letter",
  flipped: true,
  margin: (x: 0.5in, y: 0.5in),
  header: align(right)[#text(size: 8pt, fill: gray)[{{esc .Name}} | User Flow Documentation]],
  footer: context align(center)[#text(size: 8pt, fill: gray)[Page #counter(page).display("1 / 1", both: true)]],
)
#set text(size: 10pt)
#set heading(numbering: "1.")

#align(center + horizon)[
  #text(size: 28pt, weight: "bold")[{{esc .Name}}]
  #v(1em)
  #text(size: 14pt, fill: rgb("#555555"))[User Flow Documentation]
  #v(2em)
  #line(length: 50%, stroke: 0.5pt + gray)
  #v(1em)
  #text(size: 10pt, fill: gray)[Generated on {{.Generated}}]
  #v(1em)
  #text(size: 9pt, fill: gray)[{{plural .FlowCount "Flow"}} • {{plural .ScreenCount "Screen"}}]
]

#pagebreak()
#heading(level: 1, numbering: none)[Table of Contents]
#v(1em)
{{range $i, $f := .Flows}}
{{inc $i}}. {{esc $f.Title}} ({{plural (len $f.Screens) "screen"}})
{{end}}
{{range .Flows}}
#pagebreak()
{{if .From}}#heading(level: 1, numbering: none)[*{{esc .Name}}* from *{{esc .From}}*]{{else}}#heading(level: 1)[{{esc .Name}}]{{end}}
#line(length: 100%, stroke: 0.5pt + gray.lighten(70%))
{{if .Description}}#v(0.5em)
#text(size: 9pt, fill: rgb("#666666"), style: "italic")[{{esc .Description}}]
{{end}}#v(0.8em)
#grid(
  columns: ({{range $i, $s := .Screens}}{{if $i}}, {{end}}1fr{{end}}),
  gutter: 0.5em,
{{range .Screens}}  [
    #block(width: 100%, breakable: false)[
      #box(width: 100%, radius: 12pt, stroke: 0.5pt + rgb("#e5e7eb"))[
        {{if .Image}}#image("{{.Image}}", width: 100%, height: 300pt, fit: "contain"){{else}}#box(width: 100%, height: 300pt, fill: rgb("#f5f5f5"), radius: 12pt)[#align(center + horizon)[#text(size: 9pt, fill: rgb("#999999"))[No Screenshot]]]{{end}}
      ]
      #v(0.4em)
      #text(size: 9pt, weight: "bold")[{{esc .Title}}]
{{if .Notes}}      #v(0.15em)
      #text(size: 7.5pt, fill: rgb("#6b7280"))[{{esc .Notes}}]
{{end}}    ]
  ],
{{end}})
{{end}}`))

type exportDocument struct {
	Name        string
	Generated   string
	FlowCount   int
	ScreenCount int
	Flows       []exportFlow
}

type exportFlow struct {
	Name        string
	Title       string
	From        string
	Description string
	Screens     []exportScreen
}

type exportScreen struct {
	Title string
	Notes string
	Image string
}

// ExportService renders a project's flows into a PDF.
type ExportService struct {
	repos    *repository.Repositories
	access   access
	store    BlobStore
	compiler DocumentCompiler
	now      func() time.Time
}

// NewExportService builds the service. store may be nil, in which case the
// document is rendered without screenshots.
func NewExportService(repos *repository.Repositories, store BlobStore, compiler DocumentCompiler) *ExportService {
	return &ExportService{
		repos:    repos,
		access:   access{repos: repos},
		store:    store,
		compiler: compiler,
		now:      time.Now,
	}
}

// ExportProjectPDF returns the compiled document and a download file name.
func (s *ExportService) ExportProjectPDF(ctx context.Context, id auth.Identity, projectID uuid.UUID) ([]byte, string, error) {
	if _, err := s.access.project(id, projectID); err != nil {
		return nil, "", err
	}
	if s.compiler == nil || !s.compiler.Available() {
		return nil, "", &NotConfiguredError{Service: "typst"}
	}
	project, err := s.repos.Projects.GetWithTree(projectID)
	if err != nil {
		return nil, "", lookupErr("project", err)
	}

	assets := map[string][]byte{}
	doc := s.buildDocument(ctx, project, assets)

	var src bytes.Buffer
	if err := documentTemplate.Execute(&src, doc); err != nil {
		return nil, "", errors.Wrap(err, "render document")
	}
	pdf, err := s.compiler.Compile(ctx, src.Bytes(), assets)
	if err != nil {
		if errors.Is(err, conversion.ErrCompilerMissing) {
			return nil, "", &NotConfiguredError{Service: "typst"}
		}
		return nil, "", errors.Wrap(err, "compile document")
	}
	return pdf, exportFileName(project.Name), nil
}

func (s *ExportService) buildDocument(ctx context.Context, project *models.Project, assets map[string][]byte) exportDocument {
	doc := exportDocument{
		Name:      project.Name,
		Generated: s.now().Format("January 2, 2006"),
		FlowCount: len(project.Flows),
	}

	flowNames := make(map[uuid.UUID]string, len(project.Flows))
	screenTitles := map[uuid.UUID]string{}
	for _, f := range project.Flows {
		flowNames[f.ID] = f.Name
		doc.ScreenCount += len(f.Screens)
		for _, sc := range f.Screens {
			screenTitles[sc.ID] = sc.Title
		}
	}

	for _, f := range sortFlowsHierarchically(project.Flows) {
		if len(f.Screens) == 0 {
			continue
		}
		ef := exportFlow{Name: f.Name, Title: f.Name, Description: f.Description}
		switch {
		case f.ParentFlowID != nil && flowNames[*f.ParentFlowID] != "":
			ef.From = flowNames[*f.ParentFlowID]
		case f.ParentScreenID != nil && screenTitles[*f.ParentScreenID] != "":
			ef.From = screenTitles[*f.ParentScreenID]
		}
		if ef.From != "" {
			ef.Title = f.Name + " from " + ef.From
		}
		for _, sc := range f.Screens {
			es := exportScreen{Title: sc.Title, Notes: sc.Notes}
			if es.Title == "" {
				es.Title = "Untitled"
			}
			es.Image = s.fetchImage(ctx, sc, len(assets), assets)
			ef.Screens = append(ef.Screens, es)
		}
		doc.Flows = append(doc.Flows, ef)
	}
	return doc
}

// fetchImage loads a stored screenshot into assets and returns its asset
// name, or "" when the screen has none or it cannot be read.
func (s *ExportService) fetchImage(ctx context.Context, sc models.Screen, n int, assets map[string][]byte) string {
	if s.store == nil || sc.ScreenshotKey == "" {
		return ""
	}
	data, err := s.store.Get(ctx, sc.ScreenshotKey)
	if err != nil {
		log.Warn().Err(err).Str("screen_id", sc.ID.String()).Msg("skipping screenshot in export")
		return ""
	}
	name := fmt.Sprintf("images/img_%d.jpg", n)
	assets[name] = data
	return name
}

// sortFlowsHierarchically puts each flow directly after its parent, siblings
// in order. Flows whose parent is missing are treated as top level.
func sortFlowsHierarchically(flows []models.Flow) []models.Flow {
	known := make(map[uuid.UUID]bool, len(flows))
	for _, f := range flows {
		known[f.ID] = true
	}
	children := map[uuid.UUID][]models.Flow{}
	var roots []models.Flow
	for _, f := range flows {
		if f.ParentFlowID != nil && known[*f.ParentFlowID] && *f.ParentFlowID != f.ID {
			children[*f.ParentFlowID] = append(children[*f.ParentFlowID], f)
			continue
		}
		roots = append(roots, f)
	}
	byIndex := func(list []models.Flow) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].OrderIndex < list[j].OrderIndex })
	}
	byIndex(roots)

	sorted := make([]models.Flow, 0, len(flows))
	seen := make(map[uuid.UUID]bool, len(flows))
	var visit func(f models.Flow)
	visit = func(f models.Flow) {
		if seen[f.ID] {
			return
		}
		seen[f.ID] = true
		sorted = append(sorted, f)
		kids := children[f.ID]
		byIndex(kids)
		for _, k := range kids {
			visit(k)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	// cycles never reach a root
	for _, f := range flows {
		if !seen[f.ID] {
			visit(f)
		}
	}
	return sorted
}

func escapeTypst(s string) string {
	return typstEscaper.Replace(s)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func exportFileName(projectName string) string {
	return unsafeFileChars.ReplaceAllString(projectName, "_") + "_flow.pdf"
}
