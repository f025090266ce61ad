// Package locale maps the game's closed enumerations (actions, zone ids, UI
// labels) to display strings per language. Lookups of unknown keys return
// the key itself rather than failing at render time.
package locale

import (
	"encoding/json"
	"strings"
)

// Supported language tags. Anything else falls back to English.
const (
	LangEN = "en"
	LangZH = "zh"
)

var tables = map[string]map[string]string{
	LangEN: {
		"title":         "City Commander: Flood Response",
		"step":          "Hour",
		"budget":        "Command Budget",
		"trust":         "Public Trust",
		"rain":          "Rain Now",
		"accum":         "Total Accum",
		"actions":       "Commander Actions",
		"aiAdvisor":     "AI Tactical Advisor",
		"recommended":   "Recommended",
		"confidence":    "Confidence",
		"forecastTitle": "Short-term Risk",
		"scoreUpdate":   "Loss/Cost",
		"totalScore":    "City Score",
		"targetZone":    "Target Zone",
		"anyZone":       "All/Any",
		"floodRisk":     "Flood Risk",
		"finalScore":    "Final Rating",
		"totalDamage":   "Total Damage",
		"decisionCost":  "Decision Cost",
		"finalTrust":    "Final Trust",
		"aiAdoption":    "AI Adoption",
		"floodedHours":  "Flooded Hours",
		"worstHour":     "Worst Hour",
		"retrySame":     "Retry Mission",
		"timeline":      "Mission Timeline",
		"newMission":    "New Mission",
		"nameRequired":  "Please enter a commander name",
		"commanderName": "Commander Name",
		"standard":      "Standard",
		"ai_assist":     "AI Assist",
		"expert":        "Expert",
		"none":          "Standby",
		"alert":         "Alert",
		"pump":          "Pump",
		"diversion":     "Diversion",
		"evac":          "Evacuate",
		"funding":       "Request Funding",
		"industrial":    "Industrial",
		"residential":   "Residential",
		"lowland":       "Lowland",
	},
	LangZH: {
		"title":         "城市指揮官：洪水應變",
		"step":          "目前小時",
		"budget":        "應變預算",
		"trust":         "民眾信任",
		"rain":          "目前降雨",
		"accum":         "累積雨量",
		"actions":       "指揮官決策",
		"aiAdvisor":     "AI 戰術顧問",
		"recommended":   "建議戰術",
		"confidence":    "預測信心指數",
		"forecastTitle": "短程風險趨勢",
		"scoreUpdate":   "損失與成本",
		"totalScore":    "城市總評分",
		"targetZone":    "目標區域",
		"anyZone":       "全區",
		"floodRisk":     "洪水風險",
		"finalScore":    "最終評分",
		"totalDamage":   "總計損害",
		"decisionCost":  "決策成本",
		"finalTrust":    "最終信任度",
		"aiAdoption":    "AI 採納率",
		"floodedHours":  "淹水時數",
		"worstHour":     "最嚴重時刻",
		"retrySame":     "重新挑戰",
		"timeline":      "任務時間軸",
		"newMission":    "新任務",
		"nameRequired":  "請輸入指揮官名稱",
		"commanderName": "指揮官名稱",
		"standard":      "標準",
		"ai_assist":     "AI 輔助",
		"expert":        "專家",
		"none":          "待命",
		"alert":         "發布警戒",
		"pump":          "啟動抽水",
		"diversion":     "開啟分流",
		"evac":          "緊急撤離",
		"funding":       "申請緊急預算",
		"industrial":    "工業區",
		"residential":   "住宅區",
		"lowland":       "低窪區",
	},
}

// T looks up a display string. Unknown languages fall back to English;
// unknown keys return the key unchanged.
func T(lang, key string) string {
	table, ok := tables[lang]
	if !ok {
		table = tables[LangEN]
	}
	if v, ok := table[key]; ok {
		return v
	}
	if v, ok := tables[LangEN][key]; ok {
		return v
	}
	return key
}

// reasonDetail is the per-language body of a structured advisor explanation.
type reasonDetail struct {
	Summary    string `json:"summary"`
	RiskFocus  string `json:"risk_focus"`
	BudgetNote string `json:"budget_note"`
}

// ResolveReason renders an advisor reason for display. The field is either
// plain text or a JSON object keyed by language; the structured form is
// flattened to its summary and risk lines, falling back to English and then
// to the raw string.
func ResolveReason(reason, lang string) string {
	trimmed := strings.TrimSpace(reason)
	if !strings.HasPrefix(trimmed, "{") {
		return reason
	}
	var byLang map[string]reasonDetail
	if err := json.Unmarshal([]byte(trimmed), &byLang); err != nil {
		return reason
	}
	detail, ok := byLang[lang]
	if !ok {
		detail, ok = byLang[LangEN]
	}
	if !ok {
		return reason
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{detail.Summary, detail.RiskFocus, detail.BudgetNote} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return reason
	}
	return strings.Join(parts, " ")
}
