// Package api serves the assessment HTTP endpoints: results polling,
// questionnaire submission, printable reports and the admin console.
package api

import (
	"context"
	"strings"
	"time"

	"career-readiness/internal/common/auth"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/common/validation"
	"career-readiness/internal/models"
	"career-readiness/internal/report"
	"career-readiness/internal/resume"
	"career-readiness/internal/scoring"
	"career-readiness/internal/search"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Repository is the assessment store the handlers read and write.
type Repository interface {
	Create(ctx context.Context, a *models.Assessment) error
	Get(ctx context.Context, id string) (*models.Assessment, error)
	GetDetail(ctx context.Context, id string) (*models.Assessment, error)
	Update(ctx context.Context, id string, fn func(a *models.Assessment) error) (*models.Assessment, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f models.AssessmentFilter) (*models.AssessmentPage, error)
	ClerkWorkloads(ctx context.Context) (map[string]int, error)
}

type ResultsCache interface {
	GetResults(ctx context.Context, id string) ([]byte, bool)
	SetResults(ctx context.Context, id string, payload []byte) error
	Invalidate(ctx context.Context, id string) error
}

type Searcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
	Upsert(ctx context.Context, doc search.Document) error
	Delete(ctx context.Context, id string) error
}

// Processes starts pipeline instances and correlates messages to them.
type Processes interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
	PublishMessage(ctx context.Context, name, correlationKey string, variables map[string]interface{}) error
}

type Directory interface {
	ListClerks(ctx context.Context) ([]auth.Clerk, error)
}

type PDFRenderer interface {
	Render(ctx context.Context, htmlDoc string) ([]byte, error)
}

// Deps are the collaborators of the API. Search, Processes, Vision, Clerks
// and PDF may be nil when the backing service is not configured.
type Deps struct {
	Repo      Repository
	Cache     ResultsCache
	Search    Searcher
	Processes Processes
	Resumes   *resume.Store
	Extractor resume.Extractor
	Vision    resume.Extractor
	Clerks    Directory
	Report    *report.Renderer
	PDF       PDFRenderer
	Logger    logger.Logger
}

type Options struct {
	JWTSecret      string
	ProcessID      string
	MaxUploadBytes int64
	AllowedOrigins []string
	ReadTimeout    time.Duration
	DefaultScore   int
}

// ReviewCompletedMessage is published when a clerk completes a manual review.
const ReviewCompletedMessage = "review-completed"

type Server struct {
	opts     Options
	deps     Deps
	log      logger.Logger
	validate *validator.Validate
	answers  map[string]*validation.Validator
	now      func() time.Time
	app      *fiber.App
}

func New(opts Options, deps Deps) (*Server, error) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 8 << 20
	}
	if opts.DefaultScore <= 0 {
		opts.DefaultScore = scoring.DefaultCategoryScore
	}
	if deps.Report == nil {
		deps.Report = report.NewRenderer("")
	}

	s := &Server{
		opts:     opts,
		deps:     deps,
		log:      deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
		validate: validator.New(),
		answers:  map[string]*validation.Validator{},
		now:      time.Now,
	}
	for _, r := range scoring.Rubrics() {
		v, err := validation.Compile(r.Schema())
		if err != nil {
			return nil, err
		}
		s.answers[r.Type] = v
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             int(opts.MaxUploadBytes),
		ReadTimeout:           opts.ReadTimeout,
		ErrorHandler:          s.errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	if len(opts.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(opts.AllowedOrigins, ","),
			AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}
	app.Use(s.observe)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	s.routes(app)
	s.app = app
	return s, nil
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) routes(app *fiber.App) {
	api := app.Group("/api", s.authenticate)

	a := api.Group("/assessment")
	a.Post("/:type", s.createAssessment)
	a.Get("/:type/results/:id", s.getResults)
	a.Get("/:type/results/:id/print", s.printResults)
	a.Get("/:type/results/:id/pdf", s.pdfResults)
	a.Post("/:type/:id/submit-with-file", s.submitWithFile)
	a.Post("/:type/:id/submit-with-google-vision", s.submitWithVision)

	admin := api.Group("/admin", requireStaff)
	admin.Get("/assessments", s.listAssessments)
	admin.Get("/assessments/export", s.exportAssessments)
	admin.Put("/assessments", requireAdmin, s.bulkAssessments)
	admin.Get("/assessments/:id", s.getAssessment)
	admin.Patch("/assessments/:id", s.patchAssessment)
	admin.Delete("/assessments/:id", requireAdmin, s.deleteAssessment)
	admin.Get("/clerks", s.listClerks)
}
