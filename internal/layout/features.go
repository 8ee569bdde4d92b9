package layout

import (
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
)

// partitionFeatures builds the feature axis. Numeric labels (chemical
// shifts, bin centres) become scales with an empty label; anything else
// stays a label with no scale.
func partitionFeatures(labels []string) dataset.Axis {
	axis := dataset.NewAxis(len(labels))
	for i, l := range labels {
		if v, err := strconv.ParseFloat(strings.TrimSpace(l), 64); err == nil {
			axis.Scales[i] = dataset.NewScale(v)
			continue
		}
		axis.Labels[i] = l
	}
	return axis
}
