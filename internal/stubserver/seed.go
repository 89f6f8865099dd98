package stubserver

import (
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bentocli/internal/model"
)

// seedMenu は開発用の週間メニューを生成する。
func seedMenu() model.WeeklyMenu {
	weekOf := startOfWeek(time.Now()).Format("2006-01-02")

	return model.WeeklyMenu{
		WeekOf: weekOf,
		Items: []model.MenuItem{
			{ID: uuid.New().String(), Day: "monday", MealType: model.MealLunch, Name: "鮭の塩焼き弁当", Description: "焼き鮭、玉子焼き、季節の野菜", Calories: 620},
			{ID: uuid.New().String(), Day: "monday", MealType: model.MealDinner, Name: "鶏の照り焼き弁当", Description: "照り焼きチキン、ひじき煮", Calories: 710},
			{ID: uuid.New().String(), Day: "tuesday", MealType: model.MealLunch, Name: "豚の生姜焼き弁当", Description: "生姜焼き、キャベツの千切り", Calories: 680},
			{ID: uuid.New().String(), Day: "tuesday", MealType: model.MealDinner, Name: "鯖の味噌煮弁当", Description: "鯖の味噌煮、小松菜のお浸し", Calories: 650},
			{ID: uuid.New().String(), Day: "wednesday", MealType: model.MealLunch, Name: "唐揚げ弁当", Description: "鶏の唐揚げ、ポテトサラダ", Calories: 750},
			{ID: uuid.New().String(), Day: "wednesday", MealType: model.MealDinner, Name: "野菜炒め弁当", Description: "彩り野菜炒め、玄米ごはん", Calories: 540},
			{ID: uuid.New().String(), Day: "thursday", MealType: model.MealLunch, Name: "ハンバーグ弁当", Description: "デミグラスハンバーグ、にんじんグラッセ", Calories: 720},
			{ID: uuid.New().String(), Day: "thursday", MealType: model.MealDinner, Name: "天ぷら弁当", Description: "海老と野菜の天ぷら", Calories: 690},
			{ID: uuid.New().String(), Day: "friday", MealType: model.MealLunch, Name: "カレー弁当", Description: "欧風ビーフカレー、福神漬け", Calories: 700},
			{ID: uuid.New().String(), Day: "friday", MealType: model.MealDinner, Name: "おまかせ御膳", Description: "週替わりのおまかせメニュー", Calories: 660},
		},
	}
}

// seedWallet は新規ユーザー向けの初期ウォレットを生成する。
// 初回チャージ特典として残高を付与する。
func seedWallet() *model.Wallet {
	now := time.Now().UTC()
	return &model.Wallet{
		Balance: 3000,
		Transactions: []model.Transaction{
			{
				ID:        uuid.New().String(),
				Amount:    3000,
				Kind:      "charge",
				Note:      "新規登録特典",
				CreatedAt: now,
			},
		},
	}
}

// seedDeliveries は新規ドライバー向けの配達サンプルを生成する。
func seedDeliveries() []*model.Delivery {
	return []*model.Delivery{
		{
			ID:           uuid.New().String(),
			OrderID:      uuid.New().String(),
			CustomerName: "佐藤 花子",
			Address:      "東京都新宿区西新宿1-1-1",
			MealType:     model.MealLunch,
			Status:       model.DeliveryAssigned,
		},
		{
			ID:           uuid.New().String(),
			OrderID:      uuid.New().String(),
			CustomerName: "田中 太郎",
			Address:      "東京都中野区中野2-2-2",
			MealType:     model.MealDinner,
			Status:       model.DeliveryAssigned,
		},
	}
}

// startOfWeek はtを含む週の月曜日を返す。
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // 日曜は週の末尾として扱う
	}
	return t.AddDate(0, 0, -(weekday - 1))
}
