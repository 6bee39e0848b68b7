package tollzone

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/wroge/wgs84"
)

// Transformer converts points from one coordinate reference system to another
type Transformer struct {
	source   string
	target   string
	fn       wgs84.Func
	identity bool
}

// NewTransformer prepares transformation between two coordinate reference systems.
// Returns ErrConfiguration if any of identifiers is not recognized or if an abstract
// system (e.g. 'atlantis') is paired with a real one
func NewTransformer(sourceCRS, targetCRS string) (*Transformer, error) {
	src, err := lookupCRS(sourceCRS)
	if err != nil {
		return nil, err
	}
	dst, err := lookupCRS(targetCRS)
	if err != nil {
		return nil, err
	}
	tr := &Transformer{
		source: src.code,
		target: dst.code,
	}
	if src.code == dst.code {
		tr.identity = true
		return tr, nil
	}
	if src.identity || dst.identity {
		return nil, configError("can't transform between '%s' and '%s'", sourceCRS, targetCRS)
	}
	tr.fn = wgs84.Transform(src.system, dst.system)
	return tr, nil
}

// Source returns normalized identifier of source CRS
func (tr *Transformer) Source() string {
	return tr.source
}

// Target returns normalized identifier of target CRS
func (tr *Transformer) Target() string {
	return tr.target
}

// Transform converts point from source to target CRS
func (tr *Transformer) Transform(pt orb.Point) orb.Point {
	if tr == nil || tr.identity {
		return pt
	}
	x, y, _ := tr.fn(pt[0], pt[1], 0)
	return orb.Point{x, y}
}

var transformersCache = struct {
	sync.RWMutex
	items map[[2]string]*Transformer
}{items: make(map[[2]string]*Transformer)}

// Transform converts single point between two coordinate reference systems.
// Prepared transformers are cached per CRS pair
func Transform(pt orb.Point, sourceCRS, targetCRS string) (orb.Point, error) {
	key := [2]string{NormalizeCRS(sourceCRS), NormalizeCRS(targetCRS)}
	transformersCache.RLock()
	tr, ok := transformersCache.items[key]
	transformersCache.RUnlock()
	if !ok {
		var err error
		tr, err = NewTransformer(sourceCRS, targetCRS)
		if err != nil {
			return orb.Point{}, err
		}
		transformersCache.Lock()
		transformersCache.items[key] = tr
		transformersCache.Unlock()
	}
	return tr.Transform(pt), nil
}
