package bootstrap

import (
	"context"
	"fmt"

	"github.com/chronomed/chronology-service/internal/config"
	"github.com/chronomed/chronology-service/internal/core/ports"
	"github.com/chronomed/chronology-service/internal/core/usecase"
	"github.com/chronomed/chronology-service/internal/infrastructure/export/excel"
	"github.com/chronomed/chronology-service/internal/infrastructure/llm/ollama"
	"github.com/chronomed/chronology-service/internal/infrastructure/pages/pdfinfo"
	"github.com/chronomed/chronology-service/internal/infrastructure/queue/nats"
	"github.com/chronomed/chronology-service/internal/infrastructure/repository/postgres"
	"github.com/chronomed/chronology-service/internal/infrastructure/resilience"
	"github.com/chronomed/chronology-service/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Docs      ports.DocumentRepository
	Scheduler *usecase.AdmissionScheduler

	CaseUC     *usecase.CaseUseCase
	IngestUC   *usecase.IngestDocumentUseCase
	ProcessUC  *usecase.ProcessDocumentUseCase
	TimelineUC *usecase.TimelineUseCase
	ViewUC     *usecase.SourceViewUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	caseRepo := postgres.NewCaseRepository(db)
	docRepo := postgres.NewDocumentRepository(db)

	binaries, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init binary store: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llmClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
		RequestsPerMinute:  cfg.LLMRequestsPerMinute,
		ResilienceExecutor: executor,
	})
	proseGen := ollama.NewProseGenerator(llmClient)
	extractor := ollama.NewFactExtractor(llmClient)

	scheduler := usecase.NewAdmissionScheduler(docRepo, binaries, queue, cfg.MaxConcurrentDocuments)
	ingestUC := usecase.NewIngestDocumentUseCase(caseRepo, docRepo, binaries, pdfinfo.New(), scheduler)
	processUC := usecase.NewProcessDocumentUseCase(docRepo, binaries, proseGen, extractor, scheduler)
	timelineUC := usecase.NewTimelineUseCase(caseRepo, docRepo, excel.New())
	caseUC := usecase.NewCaseUseCase(caseRepo, docRepo, binaries)
	viewUC := usecase.NewSourceViewUseCase(docRepo, binaries)

	return &App{
		Config: cfg,

		Queue:     queue,
		Docs:      docRepo,
		Scheduler: scheduler,

		CaseUC:     caseUC,
		IngestUC:   ingestUC,
		ProcessUC:  processUC,
		TimelineUC: timelineUC,
		ViewUC:     viewUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
