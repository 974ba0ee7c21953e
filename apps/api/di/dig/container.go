package dig_container

import (
	"context"
	"fmt"
	"log"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/pratik071103/case-link-share/apps/api/echo"
	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/casefile"
	"github.com/pratik071103/case-link-share/core/caserecord"
	"github.com/pratik071103/case-link-share/core/session"
	"github.com/pratik071103/case-link-share/services/assessment"
	logsvc "github.com/pratik071103/case-link-share/services/logger"
	"github.com/pratik071103/case-link-share/storage/cache"
	"github.com/pratik071103/case-link-share/storage/database"
	"github.com/pratik071103/case-link-share/storage/database/inmem"
	"github.com/pratik071103/case-link-share/storage/database/postgres"
)

const (
	cachePrefix    = "caselink:"
	dbSetUpTimeout = 30 * time.Second
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// CloseStorage releases the database and the cache.
type CloseStorage func() error

type storage struct {
	dig.Out
	Cases    casefile.Repository
	Sessions session.Repository
	Cache    cache.Cache
	Close    CloseStorage
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf, "API : "), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf, "DB : "), conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newStorage opens postgres (creating and migrating it as needed) or the in-memory store.
func newStorage(conf *core.Config, loggerParam DBLoggerParam) storage {
	logger := loggerParam.Logger
	c := cache.New(conf.Redis, cachePrefix)

	if conf.Database.InMemory {
		logger.Info("Using the in-memory database")
		db := inmemdb.Open()
		return storage{
			Cases:    inmemdb.NewCaseFileRepository(db),
			Sessions: inmemdb.NewSessionRepository(db),
			Cache:    c,
			Close:    c.Close,
		}
	}

	setUp := func() (*sqlx.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), dbSetUpTimeout)
		defer cancel()

		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Ping(ctx, db); err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	if err = c.Ping(context.Background()); err != nil {
		logger.Warn(fmt.Sprintf("cache unreachable: %v", err), err)
	}

	return storage{
		Cases:    pgrepos.NewCaseFileRepository(db),
		Sessions: pgrepos.NewSessionRepository(db),
		Cache:    c,
		Close: func() error {
			if err := c.Close(); err != nil {
				logger.Error("Failed to close cache", err)
			}
			return db.Close()
		},
	}
}

func newAssessmentProvider(conf *core.Config, c cache.Cache, logger core.Logger) *assessment.CachedProvider {
	return assessment.NewCachedProvider(assessment.NewClient(conf.Assessment, logger), c, conf.Assessment.CacheTTL, logger)
}

func newRegistry(
	conf *core.Config,
	logger core.Logger,
	caseSvc *casefile.Service,
	sessionSvc *session.Service,
	source session.TaxonomySource,
) *caserecord.Registry {
	deps := caserecord.Deps{Cases: caseSvc, Sessions: sessionSvc, Source: source}
	opts := caserecord.Options{
		FieldDelay:   conf.Autosave.FieldDelay,
		SectionDelay: conf.Autosave.SectionDelay,
		SessionDelay: conf.Autosave.SessionDelay,
		Logger:       logger,
	}
	return caserecord.NewDepsRegistry(deps, opts, conf.Server.WorkspaceTTL)
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	CaseSvc    *casefile.Service
	SessionSvc *session.Service
	Registry   *caserecord.Registry
	Assessment assessment.Provider
	Validate   *validator.Validate
	Translator ut.Translator
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		CaseSvc:    p.CaseSvc,
		SessionSvc: p.SessionSvc,
		Registry:   p.Registry,
		Assessment: p.Assessment,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newAssessmentProvider, dig.As(new(assessment.Provider), new(session.TaxonomySource))))
	must(c.Provide(casefile.NewService))
	must(c.Provide(session.NewService))
	must(c.Provide(newRegistry))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
