package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/sentinel-orbital/core"
	"github.com/signalsfoundry/sentinel-orbital/model"
)

// LoadSummary is a small summary of what was loaded from JSON. It's
// mainly useful for logging from main().
type LoadSummary struct {
	ObjectIDs []string
	Assets    int
	Debris    int
}

// internal JSON shapes, kept unexported so the file format can evolve
// independently of the model types. Element keys match the public API
// payload ("a", "e", "i", "w", "O", "M0", "n").
type catalogJSON struct {
	Objects []objectJSON `json:"objects"`
}

type objectJSON struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"` // "SATELLITE" | "DEBRIS"
	Color    string       `json:"color"`
	Elements elementsJSON `json:"elements"`
}

type elementsJSON struct {
	A  float64 `json:"a"`
	E  float64 `json:"e"`
	I  float64 `json:"i"`
	W  float64 `json:"w"`
	O  float64 `json:"O"`
	M0 float64 `json:"M0"`
	N  float64 `json:"n"`
}

// Load reads a JSON object catalog from r and populates cat, keeping
// the file's object order. Elements are validated as objects are
// added, so a malformed entry fails the whole load with the offending
// ID in the error.
func Load(cat *Catalog, r io.Reader) (*LoadSummary, error) {
	if cat == nil {
		return nil, fmt.Errorf("Load: catalog is nil")
	}

	var payload catalogJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("Load: decode failed: %w", err)
	}

	summary := &LoadSummary{
		ObjectIDs: make([]string, 0, len(payload.Objects)),
	}

	for _, jsObj := range payload.Objects {
		if jsObj.ID == "" {
			return nil, fmt.Errorf("Load: object with empty id")
		}
		class, err := classFromString(jsObj.Type)
		if err != nil {
			return nil, fmt.Errorf("Load: object %q: %w", jsObj.ID, err)
		}

		obj := model.OrbitalObject{
			ID:    jsObj.ID,
			Name:  jsObj.Name,
			Class: class,
			Color: jsObj.Color,
			Elements: model.OrbitalElements{
				A:  jsObj.Elements.A,
				E:  jsObj.Elements.E,
				I:  jsObj.Elements.I,
				W:  jsObj.Elements.W,
				O:  jsObj.Elements.O,
				M0: jsObj.Elements.M0,
				N:  jsObj.Elements.N,
			},
		}
		if obj.Color == "" {
			obj.Color = defaultColor(class)
		}

		if err := cat.Add(obj); err != nil {
			return nil, fmt.Errorf("Load: %w", err)
		}

		summary.ObjectIDs = append(summary.ObjectIDs, obj.ID)
		if class == model.ClassAsset {
			summary.Assets++
		} else {
			summary.Debris++
		}
	}

	return summary, nil
}

// classFromString maps the JSON "type" string to an ObjectClass. The
// wire names come from the public API ("SATELLITE"/"DEBRIS"); the
// class constant names ("ASSET") are accepted too.
func classFromString(s string) (model.ObjectClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SATELLITE", "ASSET", "SAT":
		return model.ClassAsset, nil
	case "DEBRIS", "FRAGMENT":
		return model.ClassDebris, nil
	default:
		return 0, fmt.Errorf("unknown object type %q", s)
	}
}

func defaultColor(class model.ObjectClass) string {
	if class == model.ClassAsset {
		return core.AssetColor
	}
	return core.DebrisColor
}
