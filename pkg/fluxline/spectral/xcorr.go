package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// CrossCorrelateVelocity estimates the radial velocity by correlating the
// spectrum with a comb of Gaussians placed at the rest wavelengths. Both are
// resampled onto a uniform log-wavelength grid, where a Doppler shift is a
// constant offset.
func CrossCorrelateVelocity(sp Spectrum, lines []ReferenceLine, opts DopplerOptions) (float64, error) {
	n := sp.Len()
	if n < 8 {
		return 0, fmt.Errorf("%w: %d samples too few for cross-correlation", ErrDopplerUnresolved, n)
	}
	sigma := opts.LineSigma
	if sigma <= 0 {
		sigma = (sp.Wavelength[n-1] - sp.Wavelength[0]) / float64(n-1)
	}

	size := nextPow2(n)
	lnLo := math.Log(sp.Wavelength[0])
	lnHi := math.Log(sp.Wavelength[n-1])
	step := (lnHi - lnLo) / float64(size-1)

	flux := make([]float64, size)
	tmpl := make([]float64, size)
	used := 0
	j := 0
	for i := 0; i < size; i++ {
		lam := math.Exp(lnLo + float64(i)*step)
		for j < n-2 && sp.Wavelength[j+1] < lam {
			j++
		}
		flux[i] = lerp(sp.Wavelength[j], sp.Flux[j], sp.Wavelength[j+1], sp.Flux[j+1], lam)
	}
	for _, line := range lines {
		if line.Wavelength <= opts.LowerCutoff {
			continue
		}
		center := math.Log(line.Wavelength)
		if center < lnLo || center > lnHi {
			continue
		}
		used++
		s := sigma / line.Wavelength
		for i := range tmpl {
			d := (lnLo + float64(i)*step - center) / s
			if d > -8 && d < 8 {
				tmpl[i] += math.Exp(-0.5 * d * d)
			}
		}
	}
	if used == 0 {
		return 0, fmt.Errorf("%w: no reference line inside %.2f-%.2f Å",
			ErrDopplerUnresolved, sp.Wavelength[0], sp.Wavelength[n-1])
	}

	taper(flux)
	taper(tmpl)

	// zero padding to twice the length keeps the correlation linear
	padded := 2 * size
	fa := fft.FFTReal(append(flux, make([]float64, size)...))
	fb := fft.FFTReal(append(tmpl, make([]float64, size)...))
	for i := range fa {
		fa[i] *= cmplx.Conj(fb[i])
	}
	corr := fft.IFFT(fa)

	maxLag := int(math.Ceil(math.Log1p(opts.MaxVelocity/SpeedOfLight) / step))
	if maxLag >= size {
		maxLag = size - 1
	}
	at := func(lag int) float64 {
		return real(corr[(lag+padded)%padded])
	}

	best := -maxLag
	for lag := -maxLag + 1; lag <= maxLag; lag++ {
		if at(lag) > at(best) {
			best = lag
		}
	}
	if at(best) <= 0 {
		return 0, fmt.Errorf("%w: no positive correlation within ±%.0f km/s",
			ErrDopplerUnresolved, opts.MaxVelocity)
	}

	shift := float64(best)
	if best > -maxLag && best < maxLag {
		l, c, r := at(best-1), at(best), at(best+1)
		if denom := l - 2*c + r; denom != 0 {
			shift += 0.5 * (l - r) / denom
		}
	}
	return SpeedOfLight * math.Expm1(shift*step), nil
}

// taper removes the mean and applies a Hann window in place.
func taper(x []float64) {
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	for i := range x {
		x[i] -= mean
	}
	window.Apply(x, window.Hann)
}

func lerp(x0, y0, x1, y1, x float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return y0 + t*(y1-y0)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
