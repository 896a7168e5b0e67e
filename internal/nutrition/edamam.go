package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/fox67rus/AI-consultant-tg/pkg/models"
)

const edamamSearchURL = "https://api.edamam.com/api/food-database/v2/parser"

// Edamam — вторичный провайдер. Подключается только при наличии
// EDAMAM_APP_ID и EDAMAM_APP_KEY.
type Edamam struct {
	baseURL    string
	appID      string
	appKey     string
	httpClient *http.Client
}

func NewEdamam(appID, appKey string) *Edamam {
	return &Edamam{
		baseURL: edamamSearchURL,
		appID:   appID,
		appKey:  appKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (e *Edamam) Name() string { return "edamam" }

type edamamResponse struct {
	Parsed []struct {
		Food *edamamFood `json:"food"`
	} `json:"parsed"`
	Hints []struct {
		Food *edamamFood `json:"food"`
	} `json:"hints"`
}

type edamamFood struct {
	Label     string             `json:"label"`
	Nutrients map[string]float64 `json:"nutrients"`
}

func (e *Edamam) Lookup(ctx context.Context, product string) (*models.NutritionRecord, error) {
	q := url.Values{}
	q.Set("ingr", product)
	q.Set("app_id", e.appID)
	q.Set("app_key", e.appKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка HTTP edamam: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edamam error %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed edamamResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("неверный JSON edamam: %w", err)
	}

	// Лучший результат — в parsed, затем в hints.
	var food *edamamFood
	if len(parsed.Parsed) > 0 {
		food = parsed.Parsed[0].Food
	}
	if food == nil && len(parsed.Hints) > 0 {
		food = parsed.Hints[0].Food
	}
	if food == nil {
		return nil, nil
	}

	return &models.NutritionRecord{
		Name:     food.Label,
		Per:      basePer,
		Kcal:     edamamNum(food.Nutrients, "ENERC_KCAL"),
		ProteinG: edamamNum(food.Nutrients, "PROCNT"),
		FatG:     edamamNum(food.Nutrients, "FAT"),
		CarbsG:   edamamNum(food.Nutrients, "CHOCDF"),
		FiberG:   edamamNum(food.Nutrients, "FIBTG"),
		Source:   "edamam",
	}, nil
}

func edamamNum(n map[string]float64, key string) *float64 {
	v, ok := n[key]
	if !ok {
		return nil
	}
	return &v
}
