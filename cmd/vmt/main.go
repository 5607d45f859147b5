// cmd/vmt/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/Corphon/VisualMediaTool/internal/app"
	"github.com/Corphon/VisualMediaTool/internal/config"
	"github.com/Corphon/VisualMediaTool/internal/export"
	"github.com/Corphon/VisualMediaTool/internal/models"
	"github.com/Corphon/VisualMediaTool/internal/services"
	"github.com/Corphon/VisualMediaTool/internal/storage"
	"github.com/Corphon/VisualMediaTool/internal/timeline"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

// 彩色输出
var (
	headerColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
	labelColor   = color.New(color.FgCyan).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warnColor    = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	dimColor     = color.New(color.Faint).SprintFunc()
)

// options 命令行参数
type options struct {
	in        string
	batch     bool
	cues      string
	ai        bool
	limit     int
	topK      int
	search    bool
	mediaType string
	perQuery  int
	out       string
	session   string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("vmt", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.in, "in", "", "输入文本文件，缺省读取标准输入")
	fs.BoolVar(&opts.batch, "batch", false, "每个非空行单独分析")
	fs.StringVar(&opts.cues, "cues", "", "从 OTIO 时间线读取提示（每个片段一个文本块）")
	fs.BoolVar(&opts.ai, "ai", false, "尝试使用 AI 分析，失败时回退")
	fs.IntVar(&opts.limit, "limit", 0, "每个文本块的查询数量上限")
	fs.IntVar(&opts.topK, "topk", 0, "保留的关键词数量")
	fs.BoolVar(&opts.search, "search", false, "为生成的查询搜索素材")
	fs.StringVar(&opts.mediaType, "media", "photo", "素材类型: photo 或 video")
	fs.IntVar(&opts.perQuery, "per-query", 6, "每个查询每个提供商的结果数")
	fs.StringVar(&opts.out, "out", "", "导出结果 (.csv 或 .json)")
	fs.StringVar(&opts.session, "session", "", "保存会话 JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.in != "" && opts.cues != "" {
		return nil, errors.New("-in 与 -cues 不能同时使用")
	}
	return opts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", errorColor("错误"), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	utils.GetLogger().SetLogLevel(utils.WARNING)
	if cfg.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	}

	text, blocks, err := readBlocks(opts, stdin)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return errors.New("没有可分析的文本")
	}

	// 命令行的设置只在本次运行中生效
	settings := config.NewMemoryManager(config.Settings{
		AIEnabled:  opts.ai,
		AIProvider: cfg.AIProvider,
		AIModel:    cfg.AIModel,
	})
	metrics := utils.NewMetricsCollector()
	analysisService, _ := app.NewAnalysisService(cfg, settings, metrics)

	outcomes, err := analysisService.AnalyzeBatch(ctx, blocks, services.AnalyzeOptions{
		UseAI: opts.ai,
		TopK:  opts.topK,
		Limit: opts.limit,
	})
	if err != nil {
		return err
	}

	queries := []string{}
	seen := map[string]bool{}
	for i, outcome := range outcomes {
		printOutcome(stdout, i, len(outcomes), outcome)
		for _, q := range outcome.Queries {
			if !seen[q] {
				seen[q] = true
				queries = append(queries, q)
			}
		}
	}

	kind := models.ParseMediaKind(opts.mediaType)
	rows := queryRows(outcomes)
	if opts.search {
		searcher := app.NewSearcher(cfg, metrics)
		if len(searcher.Active()) == 0 {
			fmt.Fprintf(stdout, "%s 没有配置任何素材提供商的密钥\n", warnColor("警告"))
		}
		rows = []map[string]any{}
		err := searcher.SearchEach(ctx, queries, opts.perQuery, kind, func(query string, results []models.MediaResult) error {
			printResults(stdout, query, results)
			rows = append(rows, export.ResultRows(results)...)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if opts.out != "" {
		if err := writeRows(opts.out, rows); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s 已导出 %d 行到 %s\n", successColor("完成"), len(rows), opts.out)
	}

	if opts.session != "" {
		session := models.Session{Text: text, Queries: queries, MediaType: kind}
		if err := storage.SaveSessionFile(opts.session, session); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s 会话已保存到 %s\n", successColor("完成"), opts.session)
	}
	return nil
}

// readBlocks 返回原始文本和待分析的文本块
func readBlocks(opts *options, stdin io.Reader) (string, []string, error) {
	if opts.cues != "" {
		f, err := os.Open(opts.cues)
		if err != nil {
			return "", nil, err
		}
		defer f.Close()

		cues, err := timeline.ExtractCues(f)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", opts.cues, err)
		}
		blocks := make([]string, 0, len(cues))
		for _, cue := range cues {
			blocks = append(blocks, cue.Text())
		}
		return strings.Join(blocks, "\n"), blocks, nil
	}

	r := stdin
	if opts.in != "" {
		f, err := os.Open(opts.in)
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}
	text := string(data)

	if opts.batch {
		return text, services.SplitBlocks(text), nil
	}
	if strings.TrimSpace(text) == "" {
		return text, nil, nil
	}
	return text, []string{text}, nil
}

// queryRows 未搜索时导出的行：每个查询一行
func queryRows(outcomes []models.AnalysisOutcome) []map[string]any {
	rows := []map[string]any{}
	for i, outcome := range outcomes {
		for _, q := range outcome.Queries {
			rows = append(rows, map[string]any{
				"block":  i + 1,
				"query":  q,
				"source": outcome.Source,
			})
		}
	}
	return rows
}

func writeRows(path string, rows []map[string]any) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return export.JSON(rows, path)
	}
	return export.CSV(rows, path)
}

func printOutcome(w io.Writer, i, total int, outcome models.AnalysisOutcome) {
	if total > 1 {
		fmt.Fprintf(w, "%s %s\n", headerColor(fmt.Sprintf("[%d/%d]", i+1, total)), dimColor(firstLine(outcome.Block)))
	}

	source := successColor(outcome.Source)
	if outcome.FallbackReason != "" {
		source = warnColor(outcome.Source + " (" + outcome.FallbackReason + ")")
	}
	fmt.Fprintf(w, "%s %s\n", labelColor("source:"), source)

	keywords := make([]string, 0, len(outcome.Analysis.Keywords))
	for _, k := range outcome.Analysis.Keywords {
		keywords = append(keywords, fmt.Sprintf("%s (%.2f)", k.Phrase, k.Score))
	}
	printList(w, "keywords:", keywords)
	printList(w, "entities:", outcome.Analysis.Entities)
	printList(w, "actions:", outcome.Analysis.Actions)
	printList(w, "emotions:", outcome.Analysis.Emotions)

	fmt.Fprintln(w, labelColor("queries:"))
	for _, q := range outcome.Queries {
		fmt.Fprintf(w, "  - %s\n", q)
	}
	fmt.Fprintln(w)
}

func printList(w io.Writer, label string, items []string) {
	value := dimColor("-")
	if len(items) > 0 {
		value = strings.Join(items, ", ")
	}
	fmt.Fprintf(w, "%s %s\n", labelColor(label), value)
}

func printResults(w io.Writer, query string, results []models.MediaResult) {
	fmt.Fprintf(w, "%s %s\n", headerColor("search:"), query)
	if len(results) == 0 {
		fmt.Fprintf(w, "  %s\n", dimColor("no results"))
	}
	for _, r := range results {
		if r.Error {
			fmt.Fprintf(w, "  %s %s\n", errorColor("!"), r.Title)
			continue
		}
		fmt.Fprintf(w, "  [%s] %s\n      %s\n", r.Provider, r.Title, dimColor(r.URL))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	if len([]rune(s)) > 72 {
		s = string([]rune(s)[:72]) + "..."
	}
	return s
}
