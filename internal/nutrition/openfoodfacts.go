package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fox67rus/AI-consultant-tg/pkg/models"
)

const offSearchURL = "https://world.openfoodfacts.org/cgi/search.pl"

// OpenFoodFacts — первичный провайдер: открытая база, ключей не требует.
type OpenFoodFacts struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenFoodFacts() *OpenFoodFacts {
	return &OpenFoodFacts{
		baseURL: offSearchURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (o *OpenFoodFacts) Name() string { return "openfoodfacts" }

type offResponse struct {
	Products []offProduct `json:"products"`
}

type offProduct struct {
	ProductName string                     `json:"product_name"`
	GenericName string                     `json:"generic_name"`
	Brands      string                     `json:"brands"`
	Nutriments  map[string]json.RawMessage `json:"nutriments"`
}

func (o *OpenFoodFacts) Lookup(ctx context.Context, product string) (*models.NutritionRecord, error) {
	q := url.Values{}
	q.Set("search_terms", product)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	q.Set("page_size", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка HTTP openfoodfacts: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openfoodfacts error %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("неверный JSON openfoodfacts: %w", err)
	}
	if len(parsed.Products) == 0 {
		return nil, nil
	}

	// Берём кандидата с наибольшим числом заполненных нутриентов.
	var best *models.NutritionRecord
	for i := range parsed.Products {
		rec := o.extract(&parsed.Products[i])
		if best == nil || rec.PopulatedNutrients() > best.PopulatedNutrients() {
			best = rec
		}
	}
	return best, nil
}

// extract нормализует продукт OFF к общей записи. Если ккал нет, но
// есть килоджоули — kcal = kJ / 4.184 с округлением до одного знака.
func (o *OpenFoodFacts) extract(p *offProduct) *models.NutritionRecord {
	name := p.ProductName
	if name == "" {
		name = p.GenericName
	}
	if name == "" {
		name = p.Brands
	}

	kcal := offNum(p.Nutriments, "energy-kcal_100g")
	if kcal == nil {
		if kj := offNum(p.Nutriments, "energy_100g"); kj != nil {
			v := math.Round(*kj/4.184*10) / 10
			kcal = &v
		}
	}

	return &models.NutritionRecord{
		Name:     name,
		Per:      basePer,
		Kcal:     kcal,
		ProteinG: offNum(p.Nutriments, "proteins_100g"),
		FatG:     offNum(p.Nutriments, "fat_100g"),
		CarbsG:   offNum(p.Nutriments, "carbohydrates_100g"),
		FiberG:   offNum(p.Nutriments, "fiber_100g"),
		SugarsG:  offNum(p.Nutriments, "sugars_100g"),
		SaltG:    offNum(p.Nutriments, "salt_100g"),
		Source:   "openfoodfacts",
	}
}

// offNum читает числовое поле нутриентов: OFF отдаёт вперемешку числа
// и строки, иногда с запятой вместо точки.
func offNum(n map[string]json.RawMessage, key string) *float64 {
	raw, ok := n[key]
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &f
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
