package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repoqa/internal/config"
	"github.com/fyrsmithlabs/repoqa/internal/embeddings"
	"github.com/fyrsmithlabs/repoqa/internal/index"
	"github.com/fyrsmithlabs/repoqa/internal/ingest"
	"github.com/fyrsmithlabs/repoqa/internal/logging"
	"github.com/fyrsmithlabs/repoqa/internal/qa"
	"github.com/fyrsmithlabs/repoqa/internal/vectorstore"
)

// app wires the services behind every CLI command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	ingest   *ingest.Service
	github   *ingest.GitHubClient
	embedder embeddings.Provider
	store    vectorstore.Store
	index    *index.Service
}

// newApp loads configuration and constructs the service graph.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewProvider(cfg.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	store, err := vectorstore.NewStore(cfg, embedder, logger.Named("vectorstore"))
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	meta, err := index.NewMetaStore(cfg.MetaDir())
	if err != nil {
		return nil, fmt.Errorf("creating metadata store: %w", err)
	}

	indexSvc, err := index.NewService(store, meta, cfg.Chunking, logger.Named("index"))
	if err != nil {
		return nil, fmt.Errorf("creating index service: %w", err)
	}

	ingestSvc, err := ingest.NewService(cfg.ReposDir(), cfg.Ingest.CloneDepth, cfg.Ingest.MaxFileSize, logger.Named("ingest"))
	if err != nil {
		return nil, fmt.Errorf("creating ingest service: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		ingest:   ingestSvc,
		github:   ingest.NewGitHubClient(ctx, cfg.GitHub.Token),
		embedder: embedder,
		store:    store,
		index:    indexSvc,
	}, nil
}

// close flushes the logger and releases the vector store and embedder.
func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing vector store", zap.Error(err))
	}
	if err := a.embedder.Close(); err != nil {
		a.logger.Warn("closing embedding provider", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// newAssistant builds a chat assistant. The chat model key is only
// required here, so index/list/remove work without one.
func (a *app) newAssistant() (*qa.Assistant, error) {
	llm, err := qa.NewLLM(a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	return qa.NewAssistant(llm, a.store, a.cfg.LLM, a.cfg.Chat, qa.NewTokenCounter(), a.logger.Named("qa"))
}

// indexRepository runs the full ingest pipeline for one repository URL
// and prints progress along the way.
func (a *app) indexRepository(ctx context.Context, repoURL string) (*index.Record, error) {
	repoName, err := ingest.RepoNameFromURL(repoURL)
	if err != nil {
		return nil, err
	}

	fmt.Printf("%s %s\n", labelStyle.Render("Cloning"), valueStyle.Render(repoURL))
	repoPath, err := a.ingest.Clone(ctx, repoURL)
	if err != nil {
		return nil, fmt.Errorf("cloning repository: %w", err)
	}

	fmt.Println(labelStyle.Render("Parsing files"))
	parsed, err := a.ingest.Parse(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("parsing repository: %w", err)
	}
	fmt.Printf("%s %s\n",
		labelStyle.Render("Found"),
		valueStyle.Render(fmt.Sprintf("%d files (%d skipped)", len(parsed.Files), parsed.Skipped)),
	)

	// Metadata is decoration; indexing proceeds without it.
	info, err := a.github.RepoInfo(ctx, repoURL)
	if err != nil {
		a.logger.Warn("fetching repository metadata", zap.String("url", repoURL), zap.Error(err))
		fmt.Println(dimStyle.Render("Could not fetch repository metadata, continuing without it"))
		info = nil
	}

	fmt.Println(labelStyle.Render("Embedding and indexing chunks"))
	record, err := a.index.IndexRepository(ctx, repoName, parsed.Files, info)
	if err != nil {
		return nil, fmt.Errorf("indexing repository: %w", err)
	}

	fmt.Printf("%s %s\n",
		successStyle.Render("Indexed"),
		valueStyle.Render(fmt.Sprintf("%s: %d files, %d chunks", record.RepoName, record.TotalFiles, record.TotalChunks)),
	)
	return record, nil
}
