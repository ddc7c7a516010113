// Package web renders the task screens as server-side HTML.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/output"
	"taskdesk/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures the web view.
type Options struct {
	// Debug turns on gin's debug mode and per-request logging.
	Debug bool

	// LogWriter receives the request log. Defaults to io.Discard.
	LogWriter io.Writer
}

// App is the browser view over a service.Service.
type App struct {
	svc    service.Service
	engine *gin.Engine
}

// New builds the gin engine with the list, create and edit screens.
func New(svc service.Service, opts Options) *App {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logWriter := opts.LogWriter
	if logWriter == nil || !opts.Debug {
		logWriter = io.Discard
	}

	r := gin.New()
	r.Use(gin.LoggerWithWriter(logWriter), gin.Recovery())
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(template.FuncMap{
		"timestamp": output.FormatTimestamp,
	}).ParseFS(templateFS, "templates/*.html")))

	a := &App{svc: svc, engine: r}

	r.GET("/", a.list)
	r.GET("/create", a.createForm)
	r.POST("/create", a.create)
	r.GET("/edit/:id", a.editForm)
	r.POST("/edit/:id", a.edit)
	r.POST("/tasks/:id/delete", a.delete)
	r.POST("/tasks/:id/toggle", a.toggle)
	return a
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.engine.ServeHTTP(w, r)
}

// ListenAndServe runs the web view until ctx is cancelled.
func (a *App) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type formPage struct {
	Heading string
	Action  string
	Button  string
	Title   string
	Desc    string
	Error   string
}

func (a *App) list(c *gin.Context) {
	tasks, err := a.svc.ListTasks(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "list.html", gin.H{"Tasks": tasks})
}

func (a *App) createForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", newCreatePage())
}

func (a *App) create(c *gin.Context) {
	page := newCreatePage()
	page.Title = c.PostForm("title")
	page.Desc = c.PostForm("description")

	draft := service.Draft{Title: page.Title, Description: page.Desc}
	if err := draft.Validate(); err != nil {
		page.Error = userMessage(err)
		c.HTML(http.StatusUnprocessableEntity, "form.html", page)
		return
	}

	if _, err := a.svc.CreateTask(c.Request.Context(), draft); err != nil {
		a.failForm(c, page, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) editForm(c *gin.Context) {
	task, ok := a.loadTask(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "form.html", newEditPage(task))
}

func (a *App) edit(c *gin.Context) {
	task, ok := a.loadTask(c)
	if !ok {
		return
	}
	task.Title = c.PostForm("title")
	task.Description = c.PostForm("description")

	page := newEditPage(task)
	if err := task.Validate(); err != nil {
		page.Error = userMessage(err)
		c.HTML(http.StatusUnprocessableEntity, "form.html", page)
		return
	}

	if _, err := a.svc.UpdateTask(c.Request.Context(), task); err != nil {
		a.failForm(c, page, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := a.svc.DeleteTask(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) toggle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	completed, err := strconv.ParseBool(c.DefaultPostForm("completed", "false"))
	if err != nil {
		a.renderError(c, http.StatusBadRequest, "completed must be true or false")
		return
	}
	if _, err := a.svc.ToggleTask(c.Request.Context(), id, completed); err != nil {
		a.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// loadTask fetches the task named by the id param, rendering an error page on failure.
func (a *App) loadTask(c *gin.Context) (service.Task, bool) {
	id, ok := parseID(c)
	if !ok {
		return service.Task{}, false
	}
	task, err := a.svc.GetTask(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return service.Task{}, false
	}
	return task, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"Status": http.StatusBadRequest, "Message": "invalid task id"})
		return 0, false
	}
	return id, true
}

func newCreatePage() formPage {
	return formPage{Heading: "New task", Action: "/create", Button: "Create task"}
}

func newEditPage(task service.Task) formPage {
	return formPage{
		Heading: "Edit task",
		Action:  "/edit/" + strconv.FormatInt(task.ID, 10),
		Button:  "Update task",
		Title:   task.Title,
		Desc:    task.Description,
	}
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "Task not found."
	case errors.Is(err, service.ErrUnauthorized):
		return "The task API rejected our credentials."
	case errors.Is(err, service.ErrInvalid):
		return strings.TrimPrefix(err.Error(), service.ErrInvalid.Error()+": ")
	}
	return "The task API is unavailable: " + err.Error()
}

func (a *App) fail(c *gin.Context, err error) {
	c.Error(err)
	a.renderError(c, statusFor(err), userMessage(err))
}

// failForm keeps the user's input on screen for validation errors.
func (a *App) failForm(c *gin.Context, page formPage, err error) {
	if errors.Is(err, service.ErrInvalid) {
		c.Error(err)
		page.Error = userMessage(err)
		c.HTML(http.StatusUnprocessableEntity, "form.html", page)
		return
	}
	a.fail(c, err)
}

func (a *App) renderError(c *gin.Context, status int, msg string) {
	c.HTML(status, "error.html", gin.H{"Status": status, "Message": msg})
}
