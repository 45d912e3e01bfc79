package risk

import (
	"fmt"

	"allergy-menu-guard/internal/core/catalog"
)

// Level 風險等級，數值越大越危險
type Level int

const (
	Safe Level = iota
	LowRisk
	HighRisk
	Dangerous
)

var levelNames = [...]string{"safe", "low_risk", "high_risk", "dangerous"}

func (l Level) String() string {
	if l < Safe || l > Dangerous {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel 由名稱取得風險等級
func ParseLevel(s string) (Level, bool) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), true
		}
	}
	return Safe, false
}

// MarshalText 以名稱序列化
func (l Level) MarshalText() ([]byte, error) {
	if l < Safe || l > Dangerous {
		return nil, fmt.Errorf("invalid risk level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText 由名稱還原
func (l *Level) UnmarshalText(b []byte) error {
	v, ok := ParseLevel(string(b))
	if !ok {
		return fmt.Errorf("unknown risk level %q", string(b))
	}
	*l = v
	return nil
}

// Max 取較危險者
func Max(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}

// Escalate 上調一級，最高為 dangerous
func (l Level) Escalate() Level {
	if l >= Dangerous {
		return Dangerous
	}
	return l + 1
}

// Deescalate 下調一級，最低為 safe
func (l Level) Deescalate() Level {
	if l <= Safe {
		return Safe
	}
	return l - 1
}

// Thresholds 風險比例門檻（經驗值，可由設定調整）
type Thresholds struct {
	LowRisk   float64 // 以下為 low_risk
	Dangerous float64 // 以上（含）為 dangerous
}

// DefaultThresholds 預設門檻
var DefaultThresholds = Thresholds{LowRisk: 0.3, Dangerous: 0.7}

// FromRatio 風險比例轉等級：0 為 safe，(0, low) 為 low_risk，[low, dangerous) 為 high_risk，其餘為 dangerous
func FromRatio(ratio float64, th Thresholds) Level {
	switch {
	case ratio <= 0:
		return Safe
	case ratio < th.LowRisk:
		return LowRisk
	case ratio < th.Dangerous:
		return HighRisk
	default:
		return Dangerous
	}
}

// FromSeverity 過敏原嚴重程度轉訓練標籤
func FromSeverity(s catalog.Severity) Level {
	switch s {
	case catalog.SeverityLow:
		return LowRisk
	case catalog.SeverityHigh:
		return Dangerous
	default:
		return HighRisk
	}
}
