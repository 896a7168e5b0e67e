package nutrition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox67rus/AI-consultant-tg/pkg/models"
)

func newOFF(t *testing.T, handler http.HandlerFunc) *OpenFoodFacts {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewOpenFoodFacts()
	p.baseURL = srv.URL
	return p
}

func newEdamamProvider(t *testing.T, handler http.HandlerFunc) *Edamam {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewEdamam("id", "key")
	p.baseURL = srv.URL
	return p
}

func TestLookupDerivesKcalFromKilojoules(t *testing.T) {
	off := newOFF(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[{
			"product_name":"Овсяные хлопья",
			"nutriments":{"energy_100g":418.4,"proteins_100g":"12,5"}
		}]}`))
	})

	rec := NewClient(off).Lookup(context.Background(), "овсянка", "100g")
	require.Equal(t, models.StatusOK, rec.Status)
	require.Equal(t, "Овсяные хлопья", rec.Name)
	require.Equal(t, "100g", rec.Per)
	require.NotNil(t, rec.Kcal)
	require.InDelta(t, 100.0, *rec.Kcal, 0.001) // 418.4 кДж / 4.184
	require.NotNil(t, rec.ProteinG)
	require.InDelta(t, 12.5, *rec.ProteinG, 0.001)
}

func TestLookupPicksMostPopulatedCandidate(t *testing.T) {
	off := newOFF(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[
			{"product_name":"Скудный йогурт","nutriments":{
				"energy-kcal_100g":60,"proteins_100g":3,"fat_100g":2}},
			{"product_name":"Полный йогурт","nutriments":{
				"energy-kcal_100g":61,"proteins_100g":3.2,"fat_100g":2.1,
				"carbohydrates_100g":4.5,"fiber_100g":0,"sugars_100g":4.1,
				"salt_100g":0.1}}
		]}`))
	})

	rec := NewClient(off).Lookup(context.Background(), "йогурт", "")
	require.Equal(t, models.StatusOK, rec.Status)
	require.Equal(t, "Полный йогурт", rec.Name)
	require.Equal(t, 7, rec.PopulatedNutrients())
}

func TestLookupRejectsUnsupportedPer(t *testing.T) {
	called := false
	off := newOFF(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := NewClient(off).Lookup(context.Background(), "молоко", "250ml")
	require.Equal(t, models.StatusUnsupportedPer, rec.Status)
	require.Equal(t, "молоко", rec.Query)
	require.False(t, called, "провайдер не должен вызываться")
}

func TestLookupFallsBackToSecondProvider(t *testing.T) {
	off := newOFF(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[]}`))
	})
	ed := newEdamamProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "id", r.URL.Query().Get("app_id"))
		w.Write([]byte(`{"parsed":[{"food":{
			"label":"Banana",
			"nutrients":{"ENERC_KCAL":89,"PROCNT":1.1,"FAT":0.3,"CHOCDF":22.8}
		}}]}`))
	})

	rec := NewClient(off, ed).Lookup(context.Background(), "банан", "100g")
	require.Equal(t, models.StatusOK, rec.Status)
	require.Equal(t, "edamam", rec.Source)
	require.Equal(t, "Banana", rec.Name)
	require.NotNil(t, rec.Kcal)
	require.InDelta(t, 89, *rec.Kcal, 0.001)
}

func TestLookupIncompleteWhenNoNutrients(t *testing.T) {
	off := newOFF(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[{"product_name":"Загадочный снек","nutriments":{}}]}`))
	})

	rec := NewClient(off).Lookup(context.Background(), "снек", "")
	require.Equal(t, models.StatusIncomplete, rec.Status)
	require.Equal(t, "Загадочный снек", rec.Name)
	require.NotEmpty(t, rec.Message)
}

func TestLookupErrorWhenAllProvidersFail(t *testing.T) {
	off := newOFF(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})

	rec := NewClient(off).Lookup(context.Background(), "сыр", "")
	require.Equal(t, models.StatusError, rec.Status)
	require.Equal(t, "сыр", rec.Query)
}

func TestLookupNotFound(t *testing.T) {
	off := newOFF(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[]}`))
	})
	ed := newEdamamProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"parsed":[],"hints":[]}`))
	})

	rec := NewClient(off, ed).Lookup(context.Background(), "нечто", "")
	require.Equal(t, models.StatusNotFound, rec.Status)
}
