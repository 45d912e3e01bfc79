package risk

// Adjust 依使用者過敏原調整模型的基礎預測：有相符食材上調一級，否則下調一級
func Adjust(base Level, hasMatches bool) Level {
	if hasMatches {
		return base.Escalate()
	}
	return base.Deescalate()
}

// Decision 融合後的最終風險
type Decision struct {
	AdjustedML *Level `json:"adjusted_ml_risk,omitempty"`
	Rule       Level  `json:"rule_risk"`
	Final      Level  `json:"final_risk_level"`
}

// Fuse 取調整後模型風險與規則風險中較危險者，兩者不一致時不做平均。
// base 為 nil 表示模型不可用，最終等級即規則等級。
func Fuse(rule RuleResult, base *Level) Decision {
	d := Decision{Rule: rule.RiskLevel, Final: rule.RiskLevel}
	if base == nil {
		return d
	}

	adjusted := Adjust(*base, rule.HasMatches())
	d.AdjustedML = &adjusted
	d.Final = Max(adjusted, rule.RiskLevel)
	return d
}
