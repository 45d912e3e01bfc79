package ml

import "math"

// Vector 稀疏向量，Indices 遞增排列
type Vector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Len 非零項數量
func (v Vector) Len() int {
	return len(v.Indices)
}

// Dot 內積
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm L2 範數
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine 餘弦相似度，任一向量為零向量時回傳 0
func Cosine(a, b Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return a.Dot(b) / (na * nb)
}
