package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"contextchat/internal/app"
	"contextchat/internal/chat"
	"contextchat/internal/config"
	"contextchat/internal/loader"
	"contextchat/internal/model"
	"contextchat/internal/observability"
	"contextchat/internal/retrieval"
	"contextchat/internal/tui"
)

// conversation keeps the history of one terminal session in memory.
type conversation struct {
	chain    *chat.Chain
	apiKey   string
	indexKey string
	params   config.GenerationParams
	limit    int
	history  []model.ChatMessage
}

func (c *conversation) Ask(ctx context.Context, question string) (tui.Reply, error) {
	ans, err := c.chain.Ask(ctx, c.apiKey, c.indexKey, question, c.history, c.params)
	if err != nil {
		return tui.Reply{}, err
	}
	c.history = append(c.history,
		model.ChatMessage{Role: model.RoleUser, Content: ans.Question},
		model.ChatMessage{Role: model.RoleAssistant, Content: ans.Text},
	)
	if len(c.history) > c.limit {
		c.history = c.history[len(c.history)-c.limit:]
	}
	return tui.Reply{Answer: ans.Text, Sources: ans.Sources}, nil
}

func main() {
	chunkSize := flag.Int("chunk-size", 0, "chunk size in characters (default from config)")
	chunkOverlap := flag.Int("chunk-overlap", -1, "chunk overlap in characters (default from config)")
	decoding := flag.String("decoding", "", "greedy or sample (default from config)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] file...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Erro ao carregar configuração: %v", err)
	}

	split := cfg.Defaults.Split
	if *chunkSize > 0 {
		split.ChunkSize = *chunkSize
	}
	if *chunkOverlap >= 0 {
		split.ChunkOverlap = *chunkOverlap
	}
	params := cfg.Defaults.Generation
	if *decoding != "" {
		params.DecodingMethod = *decoding
	}
	if err := params.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	observability.Register()

	var files []loader.File
	for _, path := range flag.Args() {
		var f loader.File
		if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			f, err = loader.FetchURL(ctx, path)
		} else {
			var data []byte
			data, err = os.ReadFile(path)
			f = loader.File{Name: filepath.Base(path), Data: data}
		}
		if err != nil {
			log.Fatalf("Erro ao ler %s: %v", path, err)
		}
		files = append(files, f)
	}

	text, docs, skipped, err := loader.Load(ctx, files)
	for _, name := range skipped {
		fmt.Fprintf(os.Stderr, "%s: %s\n", name, loader.UnsupportedMessage)
	}
	if err != nil {
		log.Fatal(err)
	}

	embedder := app.NewEmbedder(cfg)
	storage, err := app.NewStorage(ctx, cfg, embedder)
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close()

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}

	ix := &retrieval.Indexer{Store: storage.Vectors, Embedder: embedder, Workers: cfg.WorkerCount, BatchSize: 32}
	report, err := ix.Build(ctx, text, split, names...)
	if err != nil {
		log.Fatal(err)
	}

	conv := &conversation{
		chain: &chat.Chain{
			Store:     storage.Vectors,
			Embedder:  embedder,
			Generator: app.NewGenerator(cfg),
			K:         cfg.RetrieverK,
		},
		apiKey:   app.DefaultAPIKey(cfg),
		indexKey: report.IndexKey,
		params:   params,
		limit:    cfg.HistoryLimit,
	}

	summary := fmt.Sprintf("%s | %d characters (~%d tokens) | %d chunks",
		strings.Join(names, ", "), report.Characters, report.EstimatedTokens, report.Chunks)

	// logs would draw over the screen
	log.SetOutput(io.Discard)

	p := tea.NewProgram(tui.New(ctx, conv, summary), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
