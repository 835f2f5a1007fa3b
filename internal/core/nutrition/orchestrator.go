package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"
)

// LocalFastPathConfidence 本地精選食物庫命中的信心值
const LocalFastPathConfidence = 0.98

// ErrProviderTimeout 資料來源超過時間預算
var ErrProviderTimeout = errors.New("provider timed out")

// 資料來源呼叫狀態
const (
	statusOK      = "ok"
	statusEmpty   = "empty"
	statusError   = "error"
	statusTimeout = "timeout"
)

// Orchestrator 營養查詢協調器
type Orchestrator struct {
	config    *config.Config
	cache     Cache
	local     LocalFoodStore
	providers []Provider
}

// NewOrchestrator 創建查詢協調器；cache 與 local 可為 nil
func NewOrchestrator(cfg *config.Config, cache Cache, local LocalFoodStore, providers ...Provider) *Orchestrator {
	return &Orchestrator{
		config:    cfg,
		cache:     cache,
		local:     local,
		providers: providers,
	}
}

// Providers 已註冊的資料來源
func (o *Orchestrator) Providers() []Provider {
	return o.providers
}

// providerOutcome 單一資料來源的呼叫結果
type providerOutcome struct {
	provider Provider
	rank     int
	result   *ProviderResult
	err      error
	status   string
	elapsed  time.Duration
}

// candidate 通過驗證的候選
type candidate struct {
	result     *ProviderResult
	providerID string
	rank       int
	confidence float64
	suspicious bool
	reason     string
}

// FindNutrition 以文字查詢營養資料
//
// 查無可信結果時回傳 nil, nil；只有格式錯誤的查詢參數會回傳錯誤。
func (o *Orchestrator) FindNutrition(ctx context.Context, query string, lc LookupContext) (*ProviderResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	lc, err := lc.normalized(query)
	if err != nil {
		return nil, err
	}

	key := CacheKey(NamespaceNutrition, o.config.Cache.Version, query, lc.Locale, 0)
	if cached := o.readCache(ctx, key, NamespaceNutrition); cached != nil {
		return cached, nil
	}

	trace := newTrace(query)

	if result := o.localFastPath(ctx, query, lc, trace); result != nil {
		o.writeCache(ctx, key, NamespaceNutrition, result)
		return result, nil
	}

	lc.Region = ResolveRegion(lc)
	trace["region"] = string(lc.Region)

	ranked := RankProviders(o.providers, lc)
	if len(ranked) == 0 {
		common.LogWarn("沒有可用的資料來源",
			zap.String("query", query),
			zap.String("region", string(lc.Region)),
		)
		return nil, nil
	}

	outcomes := o.fanOut(ctx, ranked, func(ctx context.Context, p Provider) (*ProviderResult, error) {
		return p.FindByText(ctx, query, lc)
	})

	best := o.selectBest(o.validate(outcomes, lc, trace, false))
	if best == nil {
		common.LogInfo("查無可信的營養資料", zap.String("query", query), zap.Any("trace", trace))
		return nil, nil
	}

	result := best.toResult(trace)
	if !result.IsSuspicious {
		o.writeCache(ctx, key, NamespaceNutrition, result)
	}
	return result, nil
}

// FindByBarcode 以條碼查詢營養資料
//
// 只詢問支援條碼的資料來源，不使用本地快速路徑；
// 只接受非可疑且信心值達門檻的結果。
func (o *Orchestrator) FindByBarcode(ctx context.Context, barcode string, lc LookupContext) (*ProviderResult, error) {
	code := NormalizeBarcode(barcode)
	if code == "" {
		return nil, nil
	}

	lc.Mode = ModePackaged
	lc, err := lc.normalized(code)
	if err != nil {
		return nil, err
	}

	key := CacheKey(NamespaceBarcode, o.config.Cache.Version, code, lc.Locale, 0)
	if cached := o.readCache(ctx, key, NamespaceBarcode); cached != nil {
		return cached, nil
	}

	trace := newTrace(code)
	lc.Region = ResolveRegion(lc)
	trace["region"] = string(lc.Region)

	var ranked []Provider
	for _, p := range RankProviders(o.providers, lc) {
		if _, ok := p.(BarcodeProvider); ok {
			ranked = append(ranked, p)
		}
	}
	if len(ranked) == 0 {
		return nil, nil
	}

	outcomes := o.fanOut(ctx, ranked, func(ctx context.Context, p Provider) (*ProviderResult, error) {
		return p.(BarcodeProvider).GetByBarcode(ctx, code, lc)
	})

	best := o.selectBest(o.validate(outcomes, lc, trace, true))
	if best == nil {
		return nil, nil
	}

	result := best.toResult(trace)
	o.writeCache(ctx, key, NamespaceBarcode, result)
	return result, nil
}

// localFastPath 查詢本地精選食物庫
func (o *Orchestrator) localFastPath(ctx context.Context, query string, lc LookupContext, trace map[string]interface{}) *ProviderResult {
	if o.local == nil || !o.config.Lookup.LocalFastPath {
		return nil
	}

	food, err := o.local.FindLocalFood(ctx, query, lc.Locale)
	if err != nil {
		common.LogWarn("本地食物庫查詢失敗", zap.String("query", query), zap.Error(err))
		return nil
	}
	if food == nil {
		return nil
	}

	trace["source"] = "local_fast_path"
	trace["selected"] = food.ProviderID
	return &ProviderResult{
		Food:       food,
		Confidence: LocalFastPathConfidence,
		Debug:      trace,
	}
}

// fanOut 並行呼叫所有資料來源，等待全部完成或逾時（不因單一失敗而中止）
func (o *Orchestrator) fanOut(ctx context.Context, ranked []Provider, call func(context.Context, Provider) (*ProviderResult, error)) []providerOutcome {
	outcomes := make([]providerOutcome, len(ranked))

	var g errgroup.Group
	for i, p := range ranked {
		g.Go(func() error {
			outcomes[i] = o.callProvider(ctx, i, p, call)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// callProvider 在獨立時間預算內呼叫單一資料來源
func (o *Orchestrator) callProvider(ctx context.Context, rank int, p Provider, call func(context.Context, Provider) (*ProviderResult, error)) providerOutcome {
	timeout := o.config.Lookup.TimeoutFor(p.ID())
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		result *ProviderResult
		err    error
	}
	replies := make(chan reply, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				replies <- reply{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		result, err := call(callCtx, p)
		replies <- reply{result: result, err: err}
	}()

	out := providerOutcome{provider: p, rank: rank}
	select {
	case r := <-replies:
		out.result, out.err = r.result, r.err
	case <-callCtx.Done():
		out.err = fmt.Errorf("%w after %s: %v", ErrProviderTimeout, timeout, callCtx.Err())
	}
	out.elapsed = time.Since(start)

	switch {
	case errors.Is(out.err, ErrProviderTimeout), errors.Is(out.err, context.DeadlineExceeded):
		out.status = statusTimeout
	case out.err != nil:
		out.status = statusError
	case out.result == nil || out.result.Food == nil:
		out.status = statusEmpty
	default:
		out.status = statusOK
	}

	common.LogProviderCall(p.ID(), out.elapsed, out.err)
	return out
}

// validate 驗證每個候選並記錄追蹤資訊
func (o *Orchestrator) validate(outcomes []providerOutcome, lc LookupContext, trace map[string]interface{}, barcode bool) []candidate {
	entries := make([]map[string]interface{}, 0, len(outcomes))
	candidates := make([]candidate, 0, len(outcomes))

	for _, oc := range outcomes {
		id := oc.provider.ID()
		entry := map[string]interface{}{
			"id":         id,
			"status":     oc.status,
			"latency_ms": oc.elapsed.Milliseconds(),
		}
		entries = append(entries, entry)

		if oc.err != nil {
			entry["error"] = oc.err.Error()
			continue
		}
		if oc.status != statusOK {
			continue
		}

		food := oc.result.Food
		entry["candidate"] = food.DisplayName

		verdict := ValidateCandidate(food, lc)
		if !verdict.IsValid {
			entry["rejected"] = verdict.Reason
			continue
		}

		confidence := oc.result.Confidence
		if confidence <= 0 {
			confidence = o.config.Lookup.ConfidenceFor(id)
		}
		if confidence > 1 {
			confidence = 1
		}

		suspicious := oc.result.IsSuspicious || verdict.IsSuspicious
		if barcode {
			if suspicious {
				entry["rejected"] = "suspicious barcode result: " + verdict.Reason
				continue
			}
			if confidence < o.config.Lookup.BarcodeMinConfidence {
				entry["rejected"] = fmt.Sprintf("confidence %.2f below barcode floor", confidence)
				continue
			}
		}
		if suspicious {
			entry["suspicious"] = verdict.Reason
		}

		candidates = append(candidates, candidate{
			result:     oc.result,
			providerID: id,
			rank:       oc.rank,
			confidence: confidence,
			suspicious: suspicious,
			reason:     verdict.Reason,
		})
	}

	trace["providers"] = entries
	return candidates
}

// selectBest 乾淨結果優先；同一分區內信心值高者勝，差距小於 epsilon 時以資料來源排名決定
func (o *Orchestrator) selectBest(candidates []candidate) *candidate {
	epsilon := o.config.Lookup.TieEpsilon

	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		if best == nil || c.beats(best, epsilon) {
			best = c
		}
	}
	return best
}

func (c *candidate) beats(other *candidate, epsilon float64) bool {
	if c.suspicious != other.suspicious {
		return !c.suspicious
	}
	diff := c.confidence - other.confidence
	if diff < epsilon && diff > -epsilon {
		return c.rank < other.rank
	}
	return diff > 0
}

// toResult 建立新的結果物件（不修改資料來源回傳的結果）
func (c *candidate) toResult(trace map[string]interface{}) *ProviderResult {
	trace["selected"] = c.providerID
	if c.result.Debug != nil {
		trace["provider_debug"] = c.result.Debug
	}
	if c.reason != "" {
		trace["validation"] = c.reason
	}

	return &ProviderResult{
		Food:         c.result.Food,
		Confidence:   c.confidence,
		IsSuspicious: c.suspicious,
		Debug:        trace,
	}
}

func newTrace(query string) map[string]interface{} {
	return map[string]interface{}{
		"trace_id": uuid.NewString(),
		"query":    query,
	}
}

// readCache 讀取快取；解碼失敗視為未命中
func (o *Orchestrator) readCache(ctx context.Context, key, namespace string) *ProviderResult {
	if o.cache == nil {
		return nil
	}

	data, ok := o.cache.Get(ctx, key, namespace)
	if !ok {
		common.LogCacheMiss(namespace, key)
		return nil
	}

	var result ProviderResult
	if err := json.Unmarshal(data, &result); err != nil || result.Food == nil {
		common.LogWarn("快取內容無法解析", zap.String("key", key), zap.Error(err))
		return nil
	}

	common.LogCacheHit(namespace, key)
	return &result
}

// writeCache 寫入快取；失敗只記錄不回傳
func (o *Orchestrator) writeCache(ctx context.Context, key, namespace string, result *ProviderResult) {
	if o.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		common.LogWarn("快取內容序列化失敗", zap.String("key", key), zap.Error(err))
		return
	}
	if err := o.cache.Set(ctx, key, data, namespace); err != nil {
		common.LogWarn("寫入快取失敗", zap.String("key", key), zap.Error(err))
	}
}
