package ml

import (
	"fmt"
	"sort"
)

// LabelEncoder 標籤與類別索引的對應，類別依字典序排列
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Fit 建立類別表
func (e *LabelEncoder) Fit(labels []string) {
	seen := make(map[string]bool)
	e.Classes = e.Classes[:0]
	for _, label := range labels {
		if !seen[label] {
			seen[label] = true
			e.Classes = append(e.Classes, label)
		}
	}
	sort.Strings(e.Classes)
}

// Transform 標籤轉索引
func (e *LabelEncoder) Transform(label string) (int, error) {
	i := sort.SearchStrings(e.Classes, label)
	if i < len(e.Classes) && e.Classes[i] == label {
		return i, nil
	}
	return 0, fmt.Errorf("unknown label %q", label)
}

// Inverse 索引轉標籤
func (e *LabelEncoder) Inverse(i int) string {
	if i < 0 || i >= len(e.Classes) {
		return ""
	}
	return e.Classes[i]
}
