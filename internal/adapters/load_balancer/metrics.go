package load_balancer

// SmoothTwoSample averages the previous value with the newest sample.
// It is not a decaying average: each update gives the latest sample half the weight.
func SmoothTwoSample(previous, sample float64) float64 {
	return (previous + sample) / 2
}

func UpdateEWMA(oldValue, newValue, alpha float64) float64 {
	if oldValue == 0 {
		return newValue
	}
	return oldValue*(1-alpha) + newValue*alpha
}
