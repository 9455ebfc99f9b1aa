package knowledge

import (
	"context"
	"fmt"
	"strings"
)

const (
	ragHeader = "以下是《中国食物成分表》中的参考条目:"
	ragFooter = "如果查询的菜品与参考条目不完全一致,请优先参考以上数据中最接近的条目进行估算,不要凭空编造数值。"
)

// NutritionContext retrieves composition entries for a dish name and formats
// them into a reference block for the analysis prompt. Returns an empty
// string when nothing lands within the distance bound; callers must tolerate
// an empty context.
func (m *Manager) NutritionContext(ctx context.Context, dishName string) (string, error) {
	results, err := m.SearchNutrition(ctx, dishName)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(ragHeader)
	b.WriteString("\n\n")
	for i, r := range results {
		name, _ := r.Metadata["name"].(string)
		category, _ := r.Metadata["category"].(string)
		serving, _ := r.Metadata["serving"].(string)
		note, _ := r.Metadata["cooking_note"].(string)
		calories, _ := toFloat(r.Metadata["calories"])
		protein, _ := toFloat(r.Metadata["protein"])
		fat, _ := toFloat(r.Metadata["fat"])
		carbs, _ := toFloat(r.Metadata["carbs"])

		fmt.Fprintf(&b, "%d. %s", i+1, name)
		if category != "" {
			fmt.Fprintf(&b, "(%s)", category)
		}
		fmt.Fprintf(&b, "\n   每100克: 热量%.0f千卡, 蛋白质%.1f克, 脂肪%.1f克, 碳水化合物%.1f克\n",
			calories, protein, fat, carbs)
		if serving != "" {
			fmt.Fprintf(&b, "   常见份量: %s\n", serving)
		}
		if note != "" {
			fmt.Fprintf(&b, "   烹饪说明: %s\n", note)
		}
	}
	b.WriteString("\n")
	b.WriteString(ragFooter)
	return b.String(), nil
}
