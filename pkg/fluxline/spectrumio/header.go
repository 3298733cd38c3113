package spectrumio

import (
	"strconv"

	"github.com/himanishpuri/fluxline/pkg/models"
)

// HeaderCard is one provenance keyword shared by the FITS and ECSV outputs.
type HeaderCard struct {
	Key     string
	Value   any
	Comment string
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// HeaderCards lists the provenance keywords of a run in output order.
func HeaderCards(meta models.RunMetadata) []HeaderCard {
	return []HeaderCard{
		{"DATE", meta.Date.Format("2006-01-02"), "date flux was calculated"},
		{"FILENAME", meta.Filename, "name of the fits file used to calculate the flux"},
		{"FILETYPE", "SCI", "file type of fits file"},
		{"TELESCP", "HST", "telescope used to measure flux"},
		{"INSTRMNT", meta.Instrument, "active instrument to measure flux"},
		{"GRATING", meta.Grating, "grating used to measure flux"},
		{"TARGNAME", meta.Star, "name of star used in measurement"},
		{"DOPPLER", formatFloat(meta.Doppler) + " km/s", "doppler shift used to measure flux"},
		{"WIDTH", "+/- " + formatFloat(meta.PeakWidth) + " Angstroms", "peak_width used to measure flux"},
		{"RANGE", "+/- " + formatFloat(meta.FluxRange) + " Angstroms", "flux range used to measure flux"},
		{"WIDTHPXL", meta.PeakWidthPixels, "peak_width in pixels used to measure flux"},
		{"UPRLIMIT", meta.UpperLimit, "upper limit used to determine noise"},
	}
}
