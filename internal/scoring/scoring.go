// Package scoring 实现评分聚合的纯计算规则：课程平均分、能力进度与职业角色就绪度。
//
// 本包不依赖存储层，所有输入均为已加载的评分事实，便于在服务层与测试中复用。
package scoring

import "math"

const (
	// DefaultMaxScore 单个指标满分
	DefaultMaxScore = 5.0
	// DefaultCompletionThreshold 能力进度达到该百分比视为已掌握
	DefaultCompletionThreshold = 60.0
)

// Rules 评分规则参数
type Rules struct {
	MaxScore            float64
	CompletionThreshold float64
}

// DefaultRules 返回默认评分规则（满分 5，掌握阈值 60%）
func DefaultRules() Rules {
	return Rules{MaxScore: DefaultMaxScore, CompletionThreshold: DefaultCompletionThreshold}
}

// ValidScore 判断分值是否落在闭区间 [0, MaxScore]
func (r Rules) ValidScore(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= 0 && v <= r.MaxScore
}

// Fact 单条指标评分事实（来自权威评分表）
type Fact struct {
	IndicatorID int64
	Value       float64
}

// Round 保留 places 位小数，中点向偶数舍入（与十进制金额计算一致）
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	x := v * p
	// 消除二进制浮点误差，例如 4.65*10 = 46.50000000000001
	x = math.Round(x*1e6) / 1e6
	return math.RoundToEven(x) / p
}

// Mean 计算算术平均值；空切片返回 ok=false
func Mean(values []float64) (mean float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// DisciplineAverage 课程平均分：本次提交分值的平均值，保留 1 位小数
func DisciplineAverage(scores []float64) float64 {
	mean, ok := Mean(scores)
	if !ok {
		return 0
	}
	return Round(mean, 1)
}

// AverageByIndicator 按指标汇总跨课程的平均分
func AverageByIndicator(facts []Fact) map[int64]float64 {
	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for _, f := range facts {
		sums[f.IndicatorID] += f.Value
		counts[f.IndicatorID]++
	}
	avg := make(map[int64]float64, len(sums))
	for id, sum := range sums {
		avg[id] = sum / float64(counts[id])
	}
	return avg
}

// CompetenceProgress 能力进度（0-100 的整数百分比）
//
// progress = round(100 * Σ指标平均分 / (MaxScore * 指标数))
// 未评分的指标按 0 计入分子，但仍计入分母；无指标时进度为 0。
func (r Rules) CompetenceProgress(indicatorIDs []int64, averages map[int64]float64) float64 {
	if len(indicatorIDs) == 0 || r.MaxScore <= 0 {
		return 0
	}
	var total float64
	for _, id := range indicatorIDs {
		total += averages[id]
	}
	maxPossible := r.MaxScore * float64(len(indicatorIDs))
	return Round(100*total/maxPossible, 0)
}

// Readiness 职业角色就绪度
type Readiness struct {
	Average        float64 // 能力进度平均值，保留 1 位小数
	CompletedCount int     // 进度 >= CompletionThreshold 的能力数
}

// RoleReadiness 汇总角色下各能力的进度
func (r Rules) RoleReadiness(progress []float64) Readiness {
	var res Readiness
	mean, ok := Mean(progress)
	if !ok {
		return res
	}
	res.Average = Round(mean, 1)
	for _, p := range progress {
		if p >= r.CompletionThreshold {
			res.CompletedCount++
		}
	}
	return res
}

// NullableScore 将 0 视为"未评分"，返回 nil
func NullableScore(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
