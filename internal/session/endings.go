package session

// Score bands for the narrative ending when the session ran its course.
const (
	modelCommanderScore = 85
	reliableScore       = 60
)

type ending struct {
	title       string
	description string
}

var endingsByReason = map[EndReason]map[string]ending{
	EndTrustZero: {
		"en": {"Lost Public Trust", "The public has lost all confidence in your response. Command has been revoked."},
		"zh": {"失去民心", "民眾對您的應變能力完全失去信心，指揮權已被收回。"},
	},
	EndBudgetZero: {
		"en": {"Financial Collapse", "Budget is completely depleted. Rescue supplies and equipment can no longer operate."},
		"zh": {"財政崩潰", "預算完全耗盡，救援物資與設備無法繼續運作。"},
	},
}

var endingsByBand = []struct {
	minScore int
	byLang   map[string]ending
}{
	{modelCommanderScore, map[string]ending{
		"en": {"Model Commander", "Your excellent decisions minimized damage and earned high public trust."},
		"zh": {"模範指揮官", "您卓越的決策成功將損害降至最低，並贏得了民眾的高度信任。"},
	}},
	{reliableScore, map[string]ending{
		"en": {"Reliable Bureaucrat", "Despite some damage and costs, you successfully completed the disaster relief mission."},
		"zh": {"穩健決策者", "雖然有一定的損害與支出，但您穩定地完成了救災任務。"},
	}},
	{0, map[string]ending{
		"en": {"Poor Response", "Damage exceeded expectations. The road to recovery will be exceptionally long."},
		"zh": {"慘澹收場", "損害超出了預期，災後的重建之路將異常漫長。"},
	}},
}

// endingText picks the narrative title and description. Trust and budget
// failures carry fixed text regardless of score; everything else is banded
// by the final score. Unknown languages fall back to English.
func endingText(reason EndReason, score int, lang string) (string, string) {
	if byLang, ok := endingsByReason[reason]; ok {
		e := pickLang(byLang, lang)
		return e.title, e.description
	}
	for _, band := range endingsByBand {
		if score >= band.minScore {
			e := pickLang(band.byLang, lang)
			return e.title, e.description
		}
	}
	e := pickLang(endingsByBand[len(endingsByBand)-1].byLang, lang)
	return e.title, e.description
}

func pickLang(byLang map[string]ending, lang string) ending {
	if e, ok := byLang[lang]; ok {
		return e
	}
	return byLang["en"]
}
