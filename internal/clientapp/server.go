package clientapp

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/phillip-england/empdesk/internal/apiclient"
	"github.com/phillip-england/empdesk/internal/controller"
	"github.com/phillip-england/empdesk/internal/envutil"
	"github.com/phillip-england/empdesk/internal/middleware"
	"github.com/phillip-england/empdesk/internal/sheets"
)

//go:embed templates/index.html templates/confirm.html assets/app.css
var templatesFS embed.FS

type Config struct {
	Addr               string
	APIBaseURL         string
	APITimeout         time.Duration
	AllowedOrigins     []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	// Location is the zone "today" is taken in when marking attendance.
	// Nil keeps the process zone.
	Location           *time.Location
	Now                func() time.Time
	DisableRequestLogs bool
}

// Clock returns Now, or time.Now, read in Location when one is set.
func (cfg Config) Clock() func() time.Time {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.Location == nil {
		return now
	}
	loc := cfg.Location
	return func() time.Time { return now().In(loc) }
}

type pageData struct {
	Employees controller.EmployeeTable
	Report    controller.ReportPanel
	Form      controller.AddForm
	Notices   []string
	Confirm   *confirmView
}

type confirmView struct {
	Prompt string
	Action string
}

type server struct {
	ctrl        *controller.Controller
	indexTmpl   *template.Template
	confirmTmpl *template.Template
}

// webPrompter answers the delete question from the submitted confirm field.
// With no answer yet it records the question so the page can ask it.
type webPrompter struct {
	answer  string
	asked   string
	notices []string
}

func (p *webPrompter) Confirm(message string) bool {
	switch p.answer {
	case "yes":
		return true
	case "no":
		return false
	}
	p.asked = message
	return false
}

func (p *webPrompter) Notify(message string) {
	p.notices = append(p.notices, message)
}

func DefaultConfigFromEnv() Config {
	var location *time.Location
	if name := envutil.OrDefault("CLIENT_TZ", ""); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Printf("ignoring CLIENT_TZ %q: %v", name, err)
		} else {
			location = loc
		}
	}
	return Config{
		Addr:           envutil.OrDefault("CLIENT_ADDR", ":3000"),
		APIBaseURL:     envutil.OrDefault("API_BASE_URL", "http://localhost:8000"),
		APITimeout:     envutil.DurationOrDefault("API_TIMEOUT", 8*time.Second),
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS"),
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		Location:       location,
	}
}

func NewHandler(cfg Config) http.Handler {
	s := &server{
		ctrl:        controller.New(apiclient.New(cfg.APIBaseURL, cfg.APITimeout), controller.Options{Now: cfg.Clock()}),
		indexTmpl:   template.Must(template.ParseFS(templatesFS, "templates/index.html")),
		confirmTmpl: template.Must(template.ParseFS(templatesFS, "templates/confirm.html")),
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.indexPage).Methods(http.MethodGet)
	router.HandleFunc("/actions", s.dispatchAction).Methods(http.MethodPost)
	router.HandleFunc("/employees", s.addEmployee).Methods(http.MethodPost)
	router.HandleFunc("/employees/import", s.importEmployees).Methods(http.MethodPost)
	router.HandleFunc("/export.xlsx", s.exportWorkbook).Methods(http.MethodGet)
	router.HandleFunc("/assets/app.css", s.appCSSFile).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	csp := strings.Join([]string{
		"default-src 'self'",
		"style-src 'self'",
		"img-src 'self' data:",
		"script-src 'none'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	chain := []func(http.Handler) http.Handler{
		middleware.CORS(cfg.AllowedOrigins),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: csp}),
	}
	if !cfg.DisableRequestLogs {
		chain = append([]func(http.Handler) http.Handler{middleware.RequestLog}, chain...)
	}
	return middleware.Chain(router, chain...)
}

func Run(ctx context.Context, cfg Config) error {
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg),
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("client listening on http://localhost%s (api %s)", cfg.Addr, cfg.APIBaseURL)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) indexPage(w http.ResponseWriter, r *http.Request) {
	// Load failures are shown in the page itself.
	_ = s.ctrl.Load(r.Context())
	s.renderIndex(w, r, controller.AddForm{}, nil)
}

func (s *server) dispatchAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	action, err := controller.ParseAction(r.FormValue("action"))
	if err != nil {
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	ui := &webPrompter{answer: strings.ToLower(strings.TrimSpace(r.FormValue("confirm")))}
	// Backend failures reach the user as notices.
	_ = s.ctrl.Dispatch(r.Context(), ui, action)

	if ui.asked != "" {
		data := pageData{Confirm: &confirmView{Prompt: ui.asked, Action: action.String()}}
		if err := renderHTMLTemplate(w, s.confirmTmpl, data); err != nil {
			http.Error(w, "template render failed", http.StatusInternalServerError)
			log.Printf("confirm template render failed: %v", err)
		}
		return
	}
	s.renderIndex(w, r, controller.AddForm{}, ui.notices)
}

func (s *server) addEmployee(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	submitted := controller.AddForm{
		Name:        r.FormValue("name"),
		Department:  r.FormValue("department"),
		JoiningDate: r.FormValue("joiningDate"),
	}
	ui := &webPrompter{}
	next, _ := s.ctrl.AddEmployee(r.Context(), ui, submitted)
	s.renderIndex(w, r, next, ui.notices)
}

func (s *server) importEmployees(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		s.renderIndex(w, r, controller.AddForm{}, []string{"Import failed: invalid upload"})
		return
	}
	file, header, err := r.FormFile("sheet_file")
	if err != nil {
		s.renderIndex(w, r, controller.AddForm{}, []string{"Import failed: spreadsheet file is required"})
		return
	}
	defer file.Close()

	employees, err := sheets.ReadEmployees(file, header.Filename)
	if err != nil {
		log.Printf("read import %s failed: %v", header.Filename, err)
		s.renderIndex(w, r, controller.AddForm{}, []string{"Import failed: " + err.Error()})
		return
	}

	ui := &webPrompter{}
	_, _ = s.ctrl.ImportEmployees(r.Context(), ui, employees, sheets.FirstDataRow)
	s.renderIndex(w, r, controller.AddForm{}, ui.notices)
}

func (s *server) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.ctrl.Snapshot(r.Context())
	if err != nil {
		log.Printf("export snapshot failed: %v", err)
		http.Error(w, "unable to load employee data", http.StatusBadGateway)
		return
	}
	var buf bytes.Buffer
	if err := sheets.WriteWorkbook(&buf, snapshot.Employees, snapshot.Attendance, snapshot.Report); err != nil {
		log.Printf("export workbook failed: %v", err)
		http.Error(w, "unable to build workbook", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", sheets.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="employees.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *server) appCSSFile(w http.ResponseWriter, r *http.Request) {
	css, err := templatesFS.ReadFile("assets/app.css")
	if err != nil {
		http.Error(w, "stylesheet unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(css)
}

func (s *server) renderIndex(w http.ResponseWriter, r *http.Request, form controller.AddForm, notices []string) {
	// Failures show up as the view's own error text.
	_ = s.ctrl.EnsureLoaded(r.Context())
	view := s.ctrl.View()
	data := pageData{
		Employees: view.Employees,
		Report:    view.Report,
		Form:      form,
		Notices:   notices,
	}
	if err := renderHTMLTemplate(w, s.indexTmpl, data); err != nil {
		http.Error(w, "template render failed", http.StatusInternalServerError)
		log.Printf("index template render failed: %v", err)
	}
}

func renderHTMLTemplate(w http.ResponseWriter, tmpl *template.Template, data pageData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(buf.Bytes())
	return err
}
