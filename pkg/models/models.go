package models

// Session — локальное состояние одного чата: привязка к удалённому
// треду ассистента и персонализация.
type Session struct {
	ChatID       int64
	ThreadID     string // создаётся лениво, один раз на чат
	Preferences  string // свободный текст, перезаписывается целиком
	RecentDishes []string
}

// MaxRecentDishes — сколько последних блюд храним на чат.
const MaxRecentDishes = 10

// Статусы NutritionRecord.
const (
	StatusOK             = "ok"
	StatusIncomplete     = "incomplete"
	StatusNotFound       = "not_found"
	StatusError          = "error"
	StatusUnsupportedPer = "unsupported_per"
)

// NutritionRecord — нормализованный результат поиска нутриентов.
// Поля нутриентов — указатели: nil означает «данных нет».
type NutritionRecord struct {
	Status   string   `json:"status"`
	Query    string   `json:"query,omitempty"`
	Name     string   `json:"name,omitempty"`
	Per      string   `json:"per,omitempty"`
	Kcal     *float64 `json:"kcal"`
	ProteinG *float64 `json:"protein_g"`
	FatG     *float64 `json:"fat_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FiberG   *float64 `json:"fiber_g"`
	SugarsG  *float64 `json:"sugars_g"`
	SaltG    *float64 `json:"salt_g"`
	Source   string   `json:"source,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// PopulatedNutrients возвращает число заполненных полей нутриентов.
func (r *NutritionRecord) PopulatedNutrients() int {
	n := 0
	for _, v := range []*float64{r.Kcal, r.ProteinG, r.FatG, r.CarbsG, r.FiberG, r.SugarsG, r.SaltG} {
		if v != nil {
			n++
		}
	}
	return n
}

// Usable — есть калорийность или хотя бы один макронутриент.
func (r *NutritionRecord) Usable() bool {
	return r.Kcal != nil || r.ProteinG != nil || r.FatG != nil || r.CarbsG != nil
}
