package model

// MealType は1日の中の食事区分を表す。
type MealType string

const (
	// MealLunch は昼食を示す。
	MealLunch MealType = "lunch"
	// MealDinner は夕食を示す。
	MealDinner MealType = "dinner"
)

// MenuItem は週間メニューの1品を表す。
type MenuItem struct {
	ID          string   `json:"id"`
	Day         string   `json:"day"` // "monday" 等の曜日
	MealType    MealType `json:"meal_type"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Calories    int      `json:"calories,omitempty"`
}

// WeeklyMenu はリモートの GET /menu が返す週間メニューを表す。
type WeeklyMenu struct {
	WeekOf string     `json:"week_of"` // 週の開始日（YYYY-MM-DD）
	Items  []MenuItem `json:"items"`
}
