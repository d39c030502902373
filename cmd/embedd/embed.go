package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/embedd/internal/cli"
	"github.com/hyperjump/embedd/internal/embedding"
	"github.com/hyperjump/embedd/internal/extract"
	"github.com/hyperjump/embedd/internal/ingest"
	"github.com/hyperjump/embedd/internal/models"
)

var (
	embedServer string
	embedFile   string
	embedDir    string
	embedExts   []string
)

var embedCmd = &cobra.Command{
	Use:   "embed [text...]",
	Short: "Embed texts, a file, or a directory of files",
	Long: `Embed each argument as one text. With no arguments and no --file or --dir, texts are
read from stdin, one per line.

--file and --dir extract document text (pdf, docx, xlsx, pptx, odt, ...), split it into
passages and embed every passage.

By default requests go to the server at --server. Pass --server "" to load the engine
in-process instead.`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().StringVar(&embedServer, "server", defaultServerURL, `server URL ("" = load the engine in-process)`)
	embedCmd.Flags().StringVar(&embedFile, "file", "", "embed the passages of a document")
	embedCmd.Flags().StringVar(&embedDir, "dir", "", "embed the passages of every document under a directory")
	embedCmd.Flags().StringSliceVar(&embedExts, "ext", nil, "with --dir, only these extensions (e.g. .pdf,.md)")
}

// remoteEmbedder adapts the HTTP client to ingest.BatchEmbedder.
type remoteEmbedder struct {
	client *cli.Client
}

func (r remoteEmbedder) EmbedBatch(ctx context.Context, texts []string) (*embedding.EmbeddingBatch, error) {
	resp, err := r.client.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	return embedding.NewEmbeddingBatch(resp.Embeddings, resp.TimeMs), nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	if embedFile != "" && embedDir != "" {
		return fmt.Errorf("--file and --dir are mutually exclusive")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	cfg, _, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var embedder ingest.BatchEmbedder
	if embedServer != "" {
		embedder = remoteEmbedder{client: cli.NewClient(embedServer)}
	} else {
		rt, err := openLocal(ctx, cfg, logger, true)
		if err != nil {
			return err
		}
		defer rt.Close()
		embedder = rt.svc
	}

	if embedFile != "" || embedDir != "" {
		in := ingest.NewIngester(embedder, extract.NewExtractor(),
			ingest.NewSplitter(cfg.Ingest.PassageWords, cfg.Ingest.PassageOverlap),
			ingest.WithLogger(logger))
		var passages []models.Passage
		if embedFile != "" {
			passages, err = in.File(ctx, embedFile)
		} else {
			passages, err = in.Directory(ctx, embedDir, embedExts)
		}
		if err != nil {
			return err
		}
		return cli.WritePassages(out, passages, format)
	}

	texts := args
	if len(texts) == 0 {
		if texts, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	batch, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	return cli.WriteEmbeddings(out, &models.EmbeddingResponse{
		Embeddings: batch.Vectors(),
		Count:      batch.Count,
		TimeMs:     batch.TotalTimeMs,
		AvgTimeMs:  batch.AvgTimeMs,
		Success:    true,
	}, texts, format)
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return lines, nil
}
