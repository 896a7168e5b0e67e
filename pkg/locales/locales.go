package locales

import (
	_ "embed"
	"encoding/json"
	"log"
)

//go:embed locales.json
var localesJSON []byte

// Locales содержит все текстовые строки из locales.json
type Locales struct {
	Start Start `json:"start"`
	Prefs Prefs `json:"prefs"`
	Chat  Chat  `json:"chat"`
}

type Start struct {
	Text string `json:"text"`
}

type Prefs struct {
	Current string `json:"current"`
	Unset   string `json:"unset"`
	Saved   string `json:"saved"`
	Usage   string `json:"usage"`
}

type Chat struct {
	Processing string `json:"processing"`
	Fallback   string `json:"fallback"`
}

var L *Locales

func init() {
	L = &Locales{}
	if err := json.Unmarshal(localesJSON, L); err != nil {
		log.Fatalf("Не удалось распарсить locales.json: %v", err)
	}
}

// Get возвращает указатель на локали
func Get() *Locales {
	return L
}
