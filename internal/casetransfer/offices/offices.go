// Package offices maps tribunal office names to the case-type family that
// administers them. The directory is injected configuration, never a global.
package offices

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"casetransfer/internal/casetransfer/models"
	pstrings "casetransfer/pkg/platform/strings"
)

// FamilyOffices lists the offices of one family.
type FamilyOffices struct {
	Family models.Family `yaml:"family"`
	// IntraFamilyTransfers is false for families whose offices are managed as
	// one pool, so office moves inside the family are never offered.
	IntraFamilyTransfers bool     `yaml:"intra_family_transfers"`
	Offices              []string `yaml:"offices"`
}

type file struct {
	Families []FamilyOffices `yaml:"families"`
}

// Directory is a read-only office → family lookup.
type Directory struct {
	families []FamilyOffices
	byOffice map[string]models.Family
}

// NewDirectory validates entries and builds the lookup. An office may belong
// to one family only.
func NewDirectory(entries []FamilyOffices) (*Directory, error) {
	d := &Directory{byOffice: make(map[string]models.Family)}
	for _, entry := range entries {
		if !entry.Family.IsValid() {
			return nil, fmt.Errorf("unknown family %q", entry.Family)
		}
		entry.Offices = pstrings.DedupeAndTrim(entry.Offices)
		if len(entry.Offices) == 0 {
			return nil, fmt.Errorf("family %s has no offices", entry.Family)
		}
		for _, office := range entry.Offices {
			if existing, ok := d.byOffice[office]; ok && existing != entry.Family {
				return nil, fmt.Errorf("office %q listed under both %s and %s", office, existing, entry.Family)
			}
			d.byOffice[office] = entry.Family
		}
		d.families = append(d.families, entry)
	}
	return d, nil
}

// Load parses a YAML directory document.
func Load(r io.Reader) (*Directory, error) {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode office directory: %w", err)
	}
	return NewDirectory(f.Families)
}

// LoadFile reads a YAML directory from path.
func LoadFile(path string) (*Directory, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open office directory: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Default returns the tribunal offices of England & Wales and Scotland.
func Default() *Directory {
	d, err := NewDirectory([]FamilyOffices{
		{
			Family:               models.FamilyEnglandWales,
			IntraFamilyTransfers: true,
			Offices: []string{
				"Bristol", "Leeds", "London Central", "London East", "London South",
				"Manchester", "Midlands East", "Midlands West", "Newcastle", "Wales", "Watford",
			},
		},
		{
			Family:               models.FamilyScotland,
			IntraFamilyTransfers: false,
			Offices:              []string{"Aberdeen", "Dundee", "Edinburgh", "Glasgow", "Scotland"},
		},
	})
	if err != nil {
		panic(err)
	}
	return d
}

// FamilyOf returns the family that administers office.
func (d *Directory) FamilyOf(office string) (models.Family, bool) {
	f, ok := d.byOffice[strings.TrimSpace(office)]
	return f, ok
}

// Offices returns the offices of family in configured order.
func (d *Directory) Offices(family models.Family) []string {
	for _, entry := range d.families {
		if entry.Family == family {
			return slices.Clone(entry.Offices)
		}
	}
	return nil
}

// Destinations lists offices a case currently managed by current may move to.
// Same-family scope excludes current and is empty when the family disallows
// intra-family moves; cross-family scope lists every office of the other families.
func (d *Directory) Destinations(current string, scope models.TransferScope) ([]string, error) {
	family, ok := d.FamilyOf(current)
	if !ok {
		return nil, fmt.Errorf("unknown office %q", current)
	}

	var out []string
	for _, entry := range d.families {
		switch scope {
		case models.ScopeSameFamily:
			if entry.Family != family || !entry.IntraFamilyTransfers {
				continue
			}
			for _, office := range entry.Offices {
				if office != strings.TrimSpace(current) {
					out = append(out, office)
				}
			}
		case models.ScopeCrossFamily:
			if entry.Family == family {
				continue
			}
			out = append(out, entry.Offices...)
		default:
			return nil, fmt.Errorf("unknown transfer scope %q", scope)
		}
	}
	return out, nil
}
