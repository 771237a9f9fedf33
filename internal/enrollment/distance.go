package enrollment

import (
	"gonum.org/v1/gonum/floats"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/domain"
)

// Distance is the Euclidean (L2) distance between two descriptors of equal
// length.
func Distance(a, b domain.Descriptor) float64 {
	return floats.Distance(a, b, 2)
}
