package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Corphon/VisualMediaTool/internal/config"
	apperrors "github.com/Corphon/VisualMediaTool/internal/errors"
	"github.com/Corphon/VisualMediaTool/internal/export"
	"github.com/Corphon/VisualMediaTool/internal/llm"
	"github.com/Corphon/VisualMediaTool/internal/models"
	"github.com/Corphon/VisualMediaTool/internal/storage"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

const baristaScene = "A barista wipes the counter. Steam rises. Hopeful mood."

// fakeProvider 返回固定文本的模型
type fakeProvider struct {
	text  string
	err   error
	calls *atomic.Int32
}

func (f *fakeProvider) Initialize(config map[string]string) error { return nil }
func (f *fakeProvider) GetName() string                           { return "fake" }
func (f *fakeProvider) GetSupportedModels() []string              { return nil }
func (f *fakeProvider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text}, nil
}

func newTestLLM(t *testing.T, text string, err error, withKey bool) (*LLMService, *atomic.Int32, *config.Manager, *config.Config) {
	t.Helper()
	calls := &atomic.Int32{}
	reg := llm.NewRegistry()
	reg.Register(config.ProviderGoogle, func() llm.Provider {
		return &fakeProvider{text: text, err: err, calls: calls}
	})

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.AIEnabled = true
	if withKey {
		cfg.GoogleAPIKey = "g-key"
	}
	settings, mErr := config.NewManager(cfg)
	if mErr != nil {
		t.Fatal(mErr)
	}
	return NewLLMService(reg, cfg, settings), calls, settings, cfg
}

const goodPayload = "```json\n{\"keywords\": [\"coffee shop\", \"Coffee Shop\", \"barista\", \"steam cup\", \"  \", \"counter wipe\", \"this phrase has way too many words\", \"morning light\"], \"entities\": [\"Cafe\"], \"actions\": [\"wiping\", \"pouring\"], \"emotions\": [\"hopeful\", \"warm\", \"calm\", \"cozy\"]}\n```"

func TestAIAnalyzer_CleansPayload(t *testing.T) {
	svc, _, _, _ := newTestLLM(t, goodPayload, nil, true)
	res := NewAIAnalyzer(svc, time.Second).Analyze(context.Background(), baristaScene)
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}

	got := res.Analysis.KeywordPhrases()
	want := []string{"coffee shop", "barista", "steam cup", "counter wipe", "morning light"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("keywords = %v", got)
	}
	for _, k := range res.Analysis.Keywords {
		if k.Score != 1.0 {
			t.Fatalf("AI keywords score 1.0, got %v", k.Score)
		}
	}
	if len(res.Analysis.Emotions) != 3 {
		t.Fatalf("emotions should be capped at 3: %v", res.Analysis.Emotions)
	}
}

func TestAIAnalyzer_TooFewKeywords(t *testing.T) {
	svc, _, _, _ := newTestLLM(t, `{"keywords": ["a", "b"]}`, nil, true)
	res := NewAIAnalyzer(svc, time.Second).Analyze(context.Background(), "text")
	if !errors.Is(res.Err, ErrTooFewKeywords) {
		t.Fatalf("expected ErrTooFewKeywords, got %v", res.Err)
	}
}

func TestAIAnalyzer_NotConfigured(t *testing.T) {
	svc, calls, _, _ := newTestLLM(t, goodPayload, nil, false)
	res := NewAIAnalyzer(svc, time.Second).Analyze(context.Background(), "text")
	if !errors.Is(res.Err, ErrAINotConfigured) {
		t.Fatalf("expected ErrAINotConfigured, got %v", res.Err)
	}
	if calls.Load() != 0 {
		t.Fatal("provider must not be called without a key")
	}

	var nilAnalyzer *AIAnalyzer
	if res := nilAnalyzer.Analyze(context.Background(), "x"); !errors.Is(res.Err, ErrAINotConfigured) {
		t.Fatalf("nil analyzer: %v", res.Err)
	}
}

func TestAIAnalyzer_MalformedPayload(t *testing.T) {
	svc, _, _, _ := newTestLLM(t, "I cannot help with that.", nil, true)
	res := NewAIAnalyzer(svc, time.Second).Analyze(context.Background(), "text")
	if res.OK() {
		t.Fatalf("expected failure for non-JSON output, got %+v", res.Analysis)
	}
}

// slowCompleter 直到上下文结束才返回
type slowCompleter struct{}

func (slowCompleter) Ready() (bool, string) { return true, "" }

func (slowCompleter) CreateStructuredCompletion(ctx context.Context, prompt string, systemPrompt string, outputSchema interface{}) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestAIAnalyzer_TimeoutIsTypedError(t *testing.T) {
	res := NewAIAnalyzer(slowCompleter{}, 10*time.Millisecond).Analyze(context.Background(), baristaScene)
	if !apperrors.IsTimeoutError(res.Err) || !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout error, got %v", res.Err)
	}
}

func TestAnalysisService_BatchDeadline(t *testing.T) {
	_, _, settings, cfg := newTestLLM(t, goodPayload, nil, false)
	svc := NewAnalysisService(nil, settings, cfg, utils.NewMetricsCollector())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if _, err := svc.AnalyzeBatch(ctx, []string{"one", "two"}, AnalyzeOptions{}); !apperrors.IsTimeoutError(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestLLMService_CachesResponses(t *testing.T) {
	svc, calls, _, _ := newTestLLM(t, goodPayload, nil, true)
	analyzer := NewAIAnalyzer(svc, time.Second)

	analyzer.Analyze(context.Background(), baristaScene)
	analyzer.Analyze(context.Background(), baristaScene)
	if calls.Load() != 1 {
		t.Fatalf("second identical request should hit the cache, calls = %d", calls.Load())
	}
}

func TestAnalysisService_UsesAIWhenAvailable(t *testing.T) {
	svc, _, settings, cfg := newTestLLM(t, goodPayload, nil, true)
	metrics := utils.NewMetricsCollector()
	as := NewAnalysisService(NewAIAnalyzer(svc, time.Second), settings, cfg, metrics)

	out := as.Analyze(context.Background(), baristaScene, true)
	if out.Source != models.SourceAI || out.FallbackReason != "" {
		t.Fatalf("outcome = %+v", out)
	}
	if len(out.Queries) == 0 || out.Queries[0] != "coffee shop" {
		t.Fatalf("queries = %v", out.Queries)
	}
	if metrics.GetCounterValue(utils.MetricAnalysisSourcePrefix+models.SourceAI) != 1 {
		t.Fatalf("metrics = %v", metrics.GetMetrics())
	}
	if !as.AIReady() {
		t.Fatal("AI should be ready")
	}
}

func TestAnalysisService_FallsBackToRAKE(t *testing.T) {
	svc, _, settings, cfg := newTestLLM(t, "", errors.New("quota exceeded"), true)
	metrics := utils.NewMetricsCollector()
	as := NewAnalysisService(NewAIAnalyzer(svc, time.Second), settings, cfg, metrics)

	out := as.Analyze(context.Background(), baristaScene, true)
	if out.Source != models.SourceRAKE || !strings.Contains(out.FallbackReason, "quota exceeded") {
		t.Fatalf("outcome = %+v", out)
	}
	if len(out.Analysis.Keywords) == 0 || out.Analysis.Keywords[0].Phrase != "counter steam rises hopeful mood" {
		t.Fatalf("expected deterministic keywords, got %+v", out.Analysis.Keywords)
	}
	if metrics.GetCounterValue(utils.MetricAnalysisAIFallbacks) != 1 {
		t.Fatal("fallback not counted")
	}

	settings.Update(func(s *config.Settings) { s.AIEnabled = false })
	out = as.Analyze(context.Background(), baristaScene, true)
	if out.Source != models.SourceRAKE || out.FallbackReason != "ai disabled in settings" {
		t.Fatalf("outcome = %+v", out)
	}

	out = as.Analyze(context.Background(), baristaScene, false)
	if out.FallbackReason != "" {
		t.Fatalf("no fallback reason when AI was not requested: %+v", out)
	}
}

func TestAnalysisService_BatchKeepsOrder(t *testing.T) {
	cfg := config.Default()
	cfg.BatchWorkers = 3
	as := NewAnalysisService(nil, nil, cfg, utils.NewMetricsCollector())

	blocks := SplitBlocks("Steam rises.\n\n  A dancer spins in Paris.  \nRain falls on Tokyo streets.\n")
	if len(blocks) != 3 || blocks[1] != "A dancer spins in Paris." {
		t.Fatalf("blocks = %q", blocks)
	}

	outs, err := as.AnalyzeBatch(context.Background(), blocks, AnalyzeOptions{Limit: 5})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	for i, out := range outs {
		if out.Block != blocks[i] {
			t.Fatalf("outcome %d block = %q", i, out.Block)
		}
		if len(out.Queries) > 5 {
			t.Fatalf("limit ignored: %v", out.Queries)
		}
	}
	if outs[1].Analysis.Entities[0] != "Paris" {
		t.Fatalf("entities = %v", outs[1].Analysis.Entities)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := as.AnalyzeBatch(ctx, blocks, AnalyzeOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "s3://bucket/" + key, nil
}

func newSessionService(t *testing.T, up *fakeUploader) *SessionService {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(fs.Close)
	var uploader export.Uploader
	if up != nil {
		uploader = up
	}
	return NewSessionService(storage.NewSessionStore(fs), dir+"/exports", uploader, utils.NewMetricsCollector())
}

func TestSessionService_CRUDAndExport(t *testing.T) {
	up := &fakeUploader{}
	svc := newSessionService(t, up)

	stored, err := svc.Create(models.Session{Text: "x", Queries: []string{"steam"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Select(stored.ID, "steam", models.MediaResult{Title: "Steam", Provider: "Pexels", URL: "u", Thumb: "t"}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := svc.Select(stored.ID, "steam", models.MediaResult{Error: true}); !apperrors.IsValidationError(err) {
		t.Fatalf("placeholder selection should be rejected, got %v", err)
	}

	res, err := svc.Export(context.Background(), stored.ID, "shotlist")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.RowCount != 1 || res.RemoteURL == "" || len(up.keys) != 1 || !strings.HasSuffix(res.FilePath, ".shotlist.csv") {
		t.Fatalf("export result = %+v keys=%v", res, up.keys)
	}
	data, _ := os.ReadFile(res.FilePath)
	if !strings.HasPrefix(string(data), "provider,query,thumb,title,url\n") {
		t.Fatalf("export content = %q", data)
	}

	if _, err := svc.Export(context.Background(), stored.ID, "pdf"); !apperrors.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := svc.Delete(stored.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(stored.ID); !apperrors.IsNotFoundError(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionService_UploadFailureKeepsLocalExport(t *testing.T) {
	svc := newSessionService(t, &fakeUploader{err: errors.New("no network")})
	stored, _ := svc.Create(models.Session{})

	res, err := svc.Export(context.Background(), stored.ID, "json")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.RemoteURL != "" || res.RowCount != 0 {
		t.Fatalf("result = %+v", res)
	}
	data, _ := os.ReadFile(res.FilePath)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("json export = %q", data)
	}
}

func TestLockManager_SerializesSameID(t *testing.T) {
	lm := NewLockManager()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = lm.WithLock("s1", func() error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Fatalf("max concurrent holders = %d", maxInside.Load())
	}
	if lm.size() != 1 {
		t.Fatalf("size = %d", lm.size())
	}
}

func TestLockManager_ReturnsCallbackError(t *testing.T) {
	lm := NewLockManager()
	want := errors.New("boom")
	if err := lm.WithLock("s1", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
	// 锁已释放，可再次获取
	if err := lm.WithLock("s1", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
}
