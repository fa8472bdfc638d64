package calculator

// ACF computes the sample autocorrelation for lags 0..maxLag.
// Returns nil when the series is too short or has zero variance.
func ACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if n == 0 || maxLag < 0 || maxLag >= n {
		return nil
	}
	mean := Mean(values)
	c0 := 0.0
	for _, v := range values {
		c0 += (v - mean) * (v - mean)
	}
	if c0 == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	acf[0] = 1
	for k := 1; k <= maxLag; k++ {
		ck := 0.0
		for t := k; t < n; t++ {
			ck += (values[t] - mean) * (values[t-k] - mean)
		}
		acf[k] = ck / c0
	}
	return acf
}

// YuleWalker estimates AR coefficients from autocorrelations using the
// Levinson-Durbin recursion.
func YuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}
	return phi
}
