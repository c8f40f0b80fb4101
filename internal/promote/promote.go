// Package promote swaps release variants of build files into place.
// A promotion deletes the active file and renames its ".release" sibling
// over it. All preconditions are checked before the first file is touched.
package promote

import (
	"path/filepath"

	"github.com/spf13/afero"

	"nightlyprep/internal/errors"
)

// ReleaseSuffix marks the release variant of a file.
const ReleaseSuffix = ".release"

// Promotion pairs an active file with the release variant that replaces it.
// When RequireCurrent is set the active file must exist before promotion.
type Promotion struct {
	Current        string `json:"current"`
	Release        string `json:"release"`
	RequireCurrent bool   `json:"require_current"`
}

// Result records what happened to one promotion.
type Result struct {
	Promotion
	RemovedCurrent bool `json:"removed_current"`
	Applied        bool `json:"applied"`
}

// DefaultPromotions returns the glecs build descriptor and ignore file pairs.
func DefaultPromotions() []Promotion {
	return []Promotion{
		{Current: "glecs.gdextension", Release: "glecs.gdextension" + ReleaseSuffix, RequireCurrent: true},
		{Current: ".gitignore", Release: ".gitignore" + ReleaseSuffix},
	}
}

// Promoter performs promotions relative to a base directory.
type Promoter struct {
	fs  afero.Fs
	dir string
}

// NewPromoter creates a Promoter working on fs under dir.
func NewPromoter(fs afero.Fs, dir string) *Promoter {
	return &Promoter{fs: fs, dir: dir}
}

func (p *Promoter) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.dir, name)
}

// Check verifies that every promotion can run. It reports the first missing
// or unusable file as a *errors.PromotionError.
func (p *Promoter) Check(promotions []Promotion) error {
	for _, pr := range promotions {
		release := p.path(pr.Release)
		info, err := p.fs.Stat(release)
		if err != nil {
			return errors.NewPromotionError(release, "release variant unavailable", errors.WrapFileError(release, err))
		}
		if !info.Mode().IsRegular() {
			return errors.NewPromotionError(release, "release variant is not a regular file", nil)
		}

		if !pr.RequireCurrent {
			continue
		}
		current := p.path(pr.Current)
		if _, err := p.fs.Stat(current); err != nil {
			return errors.NewPromotionError(current, "active file unavailable", errors.WrapFileError(current, err))
		}
	}
	return nil
}

// Plan checks the promotions and describes them without changing anything.
// Paths in the results are resolved against the base directory.
func (p *Promoter) Plan(promotions []Promotion) ([]Result, error) {
	if err := p.Check(promotions); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(promotions))
	for _, pr := range promotions {
		pr.Current = p.path(pr.Current)
		pr.Release = p.path(pr.Release)
		exists, err := afero.Exists(p.fs, pr.Current)
		if err != nil {
			return nil, errors.WrapFileError(pr.Current, err)
		}
		results = append(results, Result{Promotion: pr, RemovedCurrent: exists})
	}
	return results, nil
}

// Promote runs every promotion in order. The returned results cover the
// promotions applied before any failure.
func (p *Promoter) Promote(promotions []Promotion) ([]Result, error) {
	planned, err := p.Plan(promotions)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(planned))
	for _, r := range planned {
		current, release := r.Current, r.Release

		if r.RemovedCurrent {
			if err := p.fs.Remove(current); err != nil {
				return results, errors.NewPromotionError(current, "cannot remove active file", errors.WrapFileOpError(current, errors.OpWrite, err))
			}
		}
		if err := p.fs.Rename(release, current); err != nil {
			return results, errors.NewPromotionError(release, "cannot rename release variant", errors.WrapFileOpError(release, errors.OpWrite, err))
		}

		r.Applied = true
		results = append(results, r)
	}
	return results, nil
}
