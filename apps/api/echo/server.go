package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/report"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/staff"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		StaffSvc   *staff.Service
		ExamSvc    *exam.Service
		StudentSvc *student.Service
		VenueSvc   *venue.Service
		SessionSvc *session.Service
		ReportSvc  *report.Service
	}

	Server interface {
		http.Handler
		Start() error
		Shutdown(context.Context) error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := configureAuth(conf)

	registerStaffAPI(v1, jwt, s.opts.StaffSvc)
	registerExamAPI(v1, jwt, s.opts.ExamSvc)
	registerStudentAPI(v1, jwt, s.opts.StudentSvc)
	registerVenueAPI(v1, jwt, s.opts.VenueSvc)
	registerSessionAPI(v1, jwt, s.opts.SessionSvc, s.opts.ReportSvc)
}

// signalShutdown is called by the error handler when an unrecoverable error
// is caught.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Addr)
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to ExamBlock API!")
}
