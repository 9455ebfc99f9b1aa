package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/mets"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"go.uber.org/zap"
)

// GeneratePlanRequest is the natural-language plan generation input.
type GeneratePlanRequest struct {
	Query          string   `json:"query" validate:"required,min=1,max=500"`
	CaloriesIntake *float64 `json:"calories_intake"`
	Preferences    []string `json:"preferences"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

// ExerciseIntent is the stage-1 extraction result.
type ExerciseIntent struct {
	Destination    string  `json:"destination"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	Days           int     `json:"days"`
	CaloriesTarget float64 `json:"calories_target"`
	ExerciseType   string  `json:"exercise_type"`
}

// TripService generates and manages exercise plans.
type TripService interface {
	GeneratePlan(ctx context.Context, userID int64, req *GeneratePlanRequest) (*model.TripPlan, error)
	GetPlan(ctx context.Context, userID, planID int64) (*model.TripPlan, error)
	ListPlans(ctx context.Context, userID int64) ([]*model.TripPlan, error)
	RecentPlans(ctx context.Context, userID int64, limit int) ([]*model.TripPlan, error)
	TodayItems(ctx context.Context, userID int64, date time.Time) ([]model.TripItem, error)
	DeletePlan(ctx context.Context, userID, planID int64) error
}

type tripService struct {
	llm      LLMClient
	tripRepo repository.TripPlanRepository
	userRepo repository.UserRepository
	geocoder Geocoder
	calc     *mets.Calculator
}

// NewTripService creates a new instance of TripService
func NewTripService(llm LLMClient, tripRepo repository.TripPlanRepository, userRepo repository.UserRepository, geocoder Geocoder, calc *mets.Calculator) TripService {
	return &tripService{
		llm:      llm,
		tripRepo: tripRepo,
		userRepo: userRepo,
		geocoder: geocoder,
		calc:     calc,
	}
}

// Sentinel example dates some models echo back from the prompt.
var sentinelDates = map[string]struct{}{
	"2026-01-27": {},
	"1970-01-01": {},
}

// GeneratePlan runs the two-stage pipeline: intent extraction, plan
// expansion, then the deterministic post-processing layers. The persisted
// plan and its items commit in one transaction.
func (s *tripService) GeneratePlan(ctx context.Context, userID int64, req *GeneratePlanRequest) (*model.TripPlan, error) {
	intent := s.extractIntent(ctx, userID, req)
	plan := s.expandPlan(ctx, userID, req, intent)

	plan.UserID = userID
	plan.Status = model.TripStatusPlanning
	if req.Latitude != nil && req.Longitude != nil {
		plan.Latitude = req.Latitude
		plan.Longitude = req.Longitude
	}

	weight := mets.DefaultWeightKG
	if user, err := s.userRepo.GetByID(ctx, userID); err == nil && user != nil && user.WeightKG > 0 {
		weight = user.WeightKG
	}
	s.calc.EnrichItems(ctx, plan.Items, weight)

	// Items are created in the same transaction; detach them so gorm does
	// not double-insert via association saving.
	items := plan.Items
	plan.Items = nil
	if err := s.tripRepo.CreateWithItems(ctx, plan, items); err != nil {
		return nil, err
	}
	return plan, nil
}

// extractIntent is stage 1. Any failure degrades to a default intent.
func (s *tripService) extractIntent(ctx context.Context, userID int64, req *GeneratePlanRequest) *ExerciseIntent {
	today := time.Now().Format("2006-01-02")

	var b strings.Builder
	fmt.Fprintf(&b, "今天的日期是 %s。请从用户的运动需求中提取结构化意图。\n", today)
	fmt.Fprintf(&b, "用户需求: %s\n", req.Query)
	if req.CaloriesIntake != nil {
		fmt.Fprintf(&b, "用户今日已摄入热量: %.0f千卡\n", *req.CaloriesIntake)
	}
	if len(req.Preferences) > 0 {
		fmt.Fprintf(&b, "用户偏好: %s\n", strings.Join(req.Preferences, "、"))
	}
	b.WriteString("只返回一个JSON对象, 字段为: ")
	b.WriteString(`{"destination": "地点", "startDate": "YYYY-MM-DD", "endDate": "YYYY-MM-DD", "days": 数字, "calories_target": 数字, "exercise_type": "类型"}`)
	b.WriteString("\n日期必须基于今天的真实日期推算, 不要照抄示例日期。")

	intent := &ExerciseIntent{}
	raw, err := s.llm.Generate(ctx, model.CallExerciseIntent, b.String(), &userID)
	if err == nil {
		span := extractJSON(raw)
		if span != "" {
			if parseErr := json.Unmarshal([]byte(span), intent); parseErr != nil {
				logger.Warn("运动意图解析失败", zap.Error(parseErr))
				intent = &ExerciseIntent{}
			}
		}
	} else {
		logger.Warn("运动意图提取调用失败", zap.Error(err))
	}

	s.normalizeIntent(ctx, req, intent)
	return intent
}

// normalizeIntent fixes dates, derives day counts and concretizes vague
// destinations.
func (s *tripService) normalizeIntent(ctx context.Context, req *GeneratePlanRequest, intent *ExerciseIntent) {
	today := time.Now().Format("2006-01-02")

	if _, sentinel := sentinelDates[intent.StartDate]; sentinel || !validDate(intent.StartDate) {
		intent.StartDate = today
	}
	if _, sentinel := sentinelDates[intent.EndDate]; sentinel || !validDate(intent.EndDate) {
		intent.EndDate = ""
	}

	start, _ := time.Parse("2006-01-02", intent.StartDate)
	if intent.EndDate != "" {
		end, _ := time.Parse("2006-01-02", intent.EndDate)
		if end.Before(start) {
			intent.EndDate = intent.StartDate
			end = start
		}
		intent.Days = int(end.Sub(start).Hours()/24) + 1
	} else {
		if intent.Days <= 0 {
			intent.Days = 1
		}
		intent.EndDate = start.AddDate(0, 0, intent.Days-1).Format("2006-01-02")
	}

	if intent.CaloriesTarget <= 0 {
		intent.CaloriesTarget = 300
	}
	if intent.ExerciseType == "" {
		intent.ExerciseType = "walking"
	}

	intent.Destination = s.concretizeDestination(ctx, req, intent.Destination)
}

// concretizeDestination replaces "附近的公园" style vagueness with a city
// prefixed place. A concrete place following the vague token is preserved.
func (s *tripService) concretizeDestination(ctx context.Context, req *GeneratePlanRequest, destination string) string {
	city := detectCity(req.Query)
	if city == "" && req.Latitude != nil && req.Longitude != nil && s.geocoder != nil {
		if resolved, err := s.geocoder.ReverseCity(ctx, *req.Latitude, *req.Longitude); err == nil {
			city = resolved
		} else {
			logger.Warn("逆地理编码失败", zap.Error(err))
		}
	}

	cleaned := stripVagueTokens(destination)
	if cleaned == "" {
		if city != "" {
			return city + "运动场所"
		}
		return "运动场所"
	}
	if city != "" && !strings.HasPrefix(cleaned, city) {
		return city + cleaned
	}
	return cleaned
}

func (s *tripService) GetPlan(ctx context.Context, userID, planID int64) (*model.TripPlan, error) {
	plan, err := s.tripRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperrors.ErrResourceNotFound
	}
	if plan.UserID != userID {
		return nil, apperrors.ErrPermissionDenied
	}
	return plan, nil
}

func (s *tripService) ListPlans(ctx context.Context, userID int64) ([]*model.TripPlan, error) {
	return s.tripRepo.ListByUser(ctx, userID)
}

func (s *tripService) RecentPlans(ctx context.Context, userID int64, limit int) ([]*model.TripPlan, error) {
	return s.tripRepo.Recent(ctx, userID, limit)
}

func (s *tripService) TodayItems(ctx context.Context, userID int64, date time.Time) ([]model.TripItem, error) {
	return s.tripRepo.ItemsCoveringDate(ctx, userID, date)
}

func (s *tripService) DeletePlan(ctx context.Context, userID, planID int64) error {
	plan, err := s.tripRepo.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return apperrors.ErrResourceNotFound
	}
	if plan.UserID != userID {
		return apperrors.ErrPermissionDenied
	}
	return s.tripRepo.Delete(ctx, planID)
}

func validDate(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// knownCities covers the major-city detection in queries. Suffix-qualified
// names (e.g. 杭州市) are matched by their stem.
var knownCities = []string{
	"北京", "上海", "广州", "深圳", "杭州", "南京", "苏州", "成都", "重庆",
	"武汉", "西安", "天津", "长沙", "郑州", "青岛", "厦门", "福州", "合肥",
	"昆明", "大连", "宁波", "无锡", "济南", "哈尔滨", "沈阳", "石家庄",
}

func detectCity(query string) string {
	for _, city := range knownCities {
		if strings.Contains(query, city) {
			return city
		}
	}
	return ""
}

// stripVagueTokens removes "附近"-style qualifiers while preserving any
// concrete place that follows them.
func stripVagueTokens(s string) string {
	out := s
	for _, token := range []string{"附近的", "附近", "nearby", "周边的", "周边"} {
		out = strings.ReplaceAll(out, token, "")
	}
	return strings.TrimSpace(out)
}

// --- stage 2: plan expansion ---

type rawPlanItem struct {
	DayIndex  int     `json:"dayIndex"`
	StartTime string  `json:"startTime"`
	PlaceName string  `json:"placeName"`
	PlaceType string  `json:"placeType"`
	Duration  int     `json:"duration"`
	Cost      float64 `json:"cost"`
	Notes     string  `json:"notes"`
}

type rawPlan struct {
	Title       string        `json:"title"`
	Destination string        `json:"destination"`
	StartDate   string        `json:"startDate"`
	EndDate     string        `json:"endDate"`
	Items       []rawPlanItem `json:"items"`
}

// expandPlan is stage 2 plus the four post-processing layers. Any model
// failure yields the default plan.
func (s *tripService) expandPlan(ctx context.Context, userID int64, req *GeneratePlanRequest, intent *ExerciseIntent) *model.TripPlan {
	var b strings.Builder
	b.WriteString("请根据以下运动意图生成一份逐日运动计划。\n")
	fmt.Fprintf(&b, "目的地: %s, 开始日期: %s, 结束日期: %s, 天数: %d, 目标消耗: %.0f千卡, 运动类型: %s\n",
		intent.Destination, intent.StartDate, intent.EndDate, intent.Days, intent.CaloriesTarget, intent.ExerciseType)
	b.WriteString("只返回一个JSON对象, 字段为: ")
	b.WriteString(`{"title": "标题", "destination": "地点", "startDate": "YYYY-MM-DD", "endDate": "YYYY-MM-DD", "items": [{"dayIndex": 1, "startTime": "HH:MM", "placeName": "地点", "placeType": "walking|running|cycling|park|gym|indoor|outdoor", "duration": 分钟, "cost": 千卡, "notes": "说明"}]}`)

	raw, err := s.llm.Generate(ctx, model.CallTripGeneration, b.String(), &userID)
	if err != nil {
		logger.Warn("运动计划生成调用失败, 使用默认计划", zap.Error(err))
		return s.defaultPlan(intent)
	}

	span := extractJSON(raw)
	var parsed rawPlan
	if span == "" || json.Unmarshal([]byte(span), &parsed) != nil || len(parsed.Items) == 0 {
		logger.Warn("运动计划解析失败, 使用默认计划")
		return s.defaultPlan(intent)
	}

	startDate, _ := time.Parse("2006-01-02", intent.StartDate)
	endDate, _ := time.Parse("2006-01-02", intent.EndDate)
	plan := &model.TripPlan{
		Title:       parsed.Title,
		Destination: intent.Destination,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	if plan.Title == "" {
		plan.Title = intent.Destination + "运动计划"
	}

	city := detectCity(req.Query)
	seen := make(map[string]int)

	for i, item := range parsed.Items {
		dayIndex := item.DayIndex
		if dayIndex < 1 {
			dayIndex = 1
		}
		if dayIndex > intent.Days {
			dayIndex = intent.Days
		}

		placeName := sanitizePlaceName(item.PlaceName)
		if city != "" && !strings.HasPrefix(placeName, city) {
			placeName = city + placeName
		}
		placeName = ensureUniquePlace(placeName, item.PlaceType, seen)

		placeType := item.PlaceType
		if !validPlaceType(placeType) {
			placeType = "outdoor"
		}
		duration := item.Duration
		if duration <= 0 {
			duration = 30
		}

		plan.Items = append(plan.Items, model.TripItem{
			DayIndex:  dayIndex,
			StartTime: adjustStartTime(req.Query, dayIndex, startDate, time.Now()),
			PlaceName: placeName,
			PlaceType: placeType,
			Duration:  duration,
			Cost:      item.Cost,
			Notes:     item.Notes,
			SortOrder: i,
		})
	}
	return plan
}

// defaultPlan builds 1-2 walking/running items totaling the calorie target.
func (s *tripService) defaultPlan(intent *ExerciseIntent) *model.TripPlan {
	startDate, _ := time.Parse("2006-01-02", intent.StartDate)
	endDate, _ := time.Parse("2006-01-02", intent.EndDate)
	plan := &model.TripPlan{
		Title:       intent.Destination + "运动计划",
		Destination: intent.Destination,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	target := intent.CaloriesTarget

	if target <= 250 {
		plan.Items = append(plan.Items, model.TripItem{
			DayIndex:  1,
			StartTime: adjustStartTime("", 1, startDate, time.Now()),
			PlaceName: intent.Destination,
			PlaceType: "walking",
			Duration:  s.calc.DurationForTarget(context.Background(), "walking", 0, target),
			Cost:      target,
			Notes:     "快走, 保持微微出汗的节奏",
			SortOrder: 0,
		})
		return plan
	}

	half := math.Round(target / 2)
	plan.Items = append(plan.Items,
		model.TripItem{
			DayIndex:  1,
			StartTime: adjustStartTime("", 1, startDate, time.Now()),
			PlaceName: intent.Destination,
			PlaceType: "walking",
			Duration:  s.calc.DurationForTarget(context.Background(), "walking", 0, half),
			Cost:      half,
			Notes:     "热身快走",
			SortOrder: 0,
		},
		model.TripItem{
			DayIndex:  1,
			StartTime: adjustStartTime("", 1, startDate, time.Now().Add(90*time.Minute)),
			PlaceName: intent.Destination,
			PlaceType: "running",
			Duration:  s.calc.DurationForTarget(context.Background(), "running", 0, target-half),
			Cost:      target - half,
			Notes:     "匀速慢跑",
			SortOrder: 1,
		})
	return plan
}

// placeAlternatives substitutes duplicate place names per type.
var placeAlternatives = map[string][]string{
	"walking": {"滨江步道", "城市绿道", "环湖步道", "森林公园步道"},
	"running": {"体育场跑道", "奥体中心", "江边跑道", "大学操场"},
	"cycling": {"环城骑行道", "绿道骑行段", "郊野骑行线"},
	"park":    {"中央公园", "人民公园", "湿地公园", "植物园"},
	"gym":     {"全民健身中心", "社区健身房", "综合训练馆"},
	"indoor":  {"室内运动馆", "游泳馆", "羽毛球馆"},
	"outdoor": {"户外运动公园", "郊野公园", "山地步道"},
}

// ensureUniquePlace keeps place names unique within one plan.
func ensureUniquePlace(name, placeType string, seen map[string]int) string {
	if seen[name] == 0 {
		seen[name]++
		return name
	}
	for _, alt := range placeAlternatives[placeType] {
		if seen[alt] == 0 {
			seen[alt]++
			return alt
		}
	}
	seen[name]++
	return fmt.Sprintf("%s%d", name, seen[name])
}

var forbiddenPlaceTokens = []string{"示例", "测试", "XX", "虚构", "unknown", "N/A"}

// sanitizePlaceName drops placeholder tokens, truncates to 30 runes and
// falls back to a literal default.
func sanitizePlaceName(name string) string {
	for _, token := range forbiddenPlaceTokens {
		name = strings.ReplaceAll(name, token, "")
	}
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > 30 {
		name = string(runes[:30])
	}
	if name == "" {
		return "运动场所"
	}
	return name
}

func validPlaceType(t string) bool {
	switch t {
	case "walking", "running", "cycling", "park", "gym", "indoor", "outdoor":
		return true
	}
	return false
}

// Meal-slot keywords → base start times.
var timeKeywordBases = []struct {
	keywords []string
	base     string
}{
	{keywords: []string{"早餐", "早上", "上午"}, base: "08:00"},
	{keywords: []string{"午餐", "中午"}, base: "12:00"},
	{keywords: []string{"晚餐", "傍晚", "晚上"}, base: "19:00"},
	{keywords: []string{"下午"}, base: "15:00"},
}

// adjustStartTime derives a deterministic start time from the query's
// meal-slot keyword, the day index and the current time, clamped to the
// [06:30, 21:30] window.
func adjustStartTime(query string, dayIndex int, startDate, now time.Time) string {
	offset := 30 + ((dayIndex * 11) % 31)

	var base time.Time
	matched := false
	for _, rule := range timeKeywordBases {
		for _, kw := range rule.keywords {
			if strings.Contains(query, kw) {
				base, _ = time.Parse("15:04", rule.base)
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}

	if !matched {
		if dayIndex == 1 && sameDay(startDate, now) {
			base = time.Date(0, 1, 1, now.Hour(), now.Minute(), 0, 0, time.UTC)
		} else {
			base, _ = time.Parse("15:04", "18:00")
		}
	}

	t := base.Add(time.Duration(offset) * time.Minute)
	return clampTime(t).Format("15:04")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func clampTime(t time.Time) time.Time {
	lower := time.Date(t.Year(), t.Month(), t.Day(), 6, 30, 0, 0, t.Location())
	upper := time.Date(t.Year(), t.Month(), t.Day(), 21, 30, 0, 0, t.Location())
	if t.Before(lower) {
		return lower
	}
	if t.After(upper) {
		return upper
	}
	return t
}
