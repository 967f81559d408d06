package ml

import "math"

const (
	svmTolerance = 1e-3
	svmTau       = 1e-12
)

// SVM is a binary soft-margin classifier with an RBF kernel trained by
// sequential minimal optimization. Classes[1] is the positive class. A model
// fitted on a single class always predicts that class.
type SVM struct {
	C       float64   `json:"c"`
	Gamma   float64   `json:"gamma"`
	Rho     float64   `json:"rho"`
	Classes []string  `json:"classes"`
	Support []Vector  `json:"support_vectors"`
	Coef    []float64 `json:"dual_coef"`
}

// NewSVM returns an unfitted classifier. c <= 0 selects 1.
func NewSVM(c float64) *SVM {
	if c <= 0 {
		c = 1
	}
	return &SVM{C: c}
}

// Fitted reports whether Fit has run.
func (s *SVM) Fitted() bool {
	return s != nil && len(s.Classes) > 0
}

// Fit trains on X with labels y. nFeatures is the dimensionality of X and
// sets gamma to 1/(nFeatures*var(X)) over all dense entries.
func (s *SVM) Fit(X []Vector, y []string, nFeatures int) error {
	if len(X) == 0 {
		return ErrNoSamples
	}
	if len(X) != len(y) {
		return ErrLengthMismatch
	}
	if s.C <= 0 {
		s.C = 1
	}
	classes, yi := classIndex(y)
	if len(classes) > 2 {
		return ErrTooManyClasses
	}
	s.Classes = classes
	s.Support = nil
	s.Coef = nil
	s.Rho = 0
	s.Gamma = scaleGamma(X, nFeatures)
	if len(classes) == 1 {
		return nil
	}

	n := len(X)
	sign := make([]float64, n)
	for i, c := range yi {
		if c == 1 {
			sign[i] = 1
		} else {
			sign[i] = -1
		}
	}

	norms := make([]float64, n)
	for i, x := range X {
		norms[i] = x.SquaredNorm()
	}
	K := make([][]float64, n)
	for i := range K {
		K[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		K[i][i] = 1
		for j := i + 1; j < n; j++ {
			d := norms[i] + norms[j] - 2*X[i].Dot(X[j])
			if d < 0 {
				d = 0
			}
			k := math.Exp(-s.Gamma * d)
			K[i][j] = k
			K[j][i] = k
		}
	}
	q := func(i, j int) float64 { return sign[i] * sign[j] * K[i][j] }

	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}
	C := s.C
	isUp := func(t int) bool {
		return (sign[t] > 0 && alpha[t] < C) || (sign[t] < 0 && alpha[t] > 0)
	}
	isLow := func(t int) bool {
		return (sign[t] > 0 && alpha[t] > 0) || (sign[t] < 0 && alpha[t] < C)
	}

	maxIter := 100*n + 10000
	for iter := 0; iter < maxIter; iter++ {
		i, j := -1, -1
		gMax, gMin := math.Inf(-1), math.Inf(1)
		for t := 0; t < n; t++ {
			v := -sign[t] * grad[t]
			if isUp(t) && v > gMax {
				gMax, i = v, t
			}
			if isLow(t) && v < gMin {
				gMin, j = v, t
			}
		}
		if i < 0 || j < 0 || gMax-gMin < svmTolerance {
			break
		}

		oldI, oldJ := alpha[i], alpha[j]
		if sign[i] != sign[j] {
			quad := q(i, i) + q(j, j) + 2*q(i, j)
			if quad <= 0 {
				quad = svmTau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = C - diff
				}
			} else if alpha[j] > C {
				alpha[j] = C
				alpha[i] = C + diff
			}
		} else {
			quad := q(i, i) + q(j, j) - 2*q(i, j)
			if quad <= 0 {
				quad = svmTau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > C {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = sum - C
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > C {
				if alpha[j] > C {
					alpha[j] = C
					alpha[i] = sum - C
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			grad[t] += q(i, t)*dI + q(j, t)*dJ
		}
	}

	s.Rho = computeRho(sign, alpha, grad, C)
	for i := range alpha {
		if alpha[i] > 0 {
			s.Support = append(s.Support, X[i])
			s.Coef = append(s.Coef, sign[i]*alpha[i])
		}
	}
	return nil
}

// Decision returns the signed distance-like score; positive means Classes[1].
func (s *SVM) Decision(x Vector) float64 {
	norm := x.SquaredNorm()
	var sum float64
	for k, sv := range s.Support {
		d := sv.SquaredNorm() + norm - 2*sv.Dot(x)
		if d < 0 {
			d = 0
		}
		sum += s.Coef[k] * math.Exp(-s.Gamma*d)
	}
	return sum - s.Rho
}

// Predict returns the predicted class for x.
func (s *SVM) Predict(x Vector) string {
	switch len(s.Classes) {
	case 0:
		return ""
	case 1:
		return s.Classes[0]
	}
	if s.Decision(x) > 0 {
		return s.Classes[1]
	}
	return s.Classes[0]
}

// PredictAll predicts each row of X.
func (s *SVM) PredictAll(X []Vector) []string {
	out := make([]string, len(X))
	for i, x := range X {
		out[i] = s.Predict(x)
	}
	return out
}

func computeRho(sign, alpha, grad []float64, C float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	var sumFree float64
	free := 0
	for i := range alpha {
		yg := sign[i] * grad[i]
		switch {
		case alpha[i] >= C:
			if sign[i] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[i] <= 0:
			if sign[i] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			free++
			sumFree += yg
		}
	}
	if free > 0 {
		return sumFree / float64(free)
	}
	switch {
	case math.IsInf(ub, 1) && math.IsInf(lb, -1):
		return 0
	case math.IsInf(ub, 1):
		return lb
	case math.IsInf(lb, -1):
		return ub
	}
	return (ub + lb) / 2
}

func scaleGamma(X []Vector, nFeatures int) float64 {
	if nFeatures <= 0 || len(X) == 0 {
		return 1
	}
	total := float64(len(X)) * float64(nFeatures)
	var sum, sumSq float64
	for _, x := range X {
		for _, v := range x.Values {
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / total
	variance := sumSq/total - mean*mean
	if variance <= 0 {
		return 1
	}
	return 1 / (float64(nFeatures) * variance)
}
