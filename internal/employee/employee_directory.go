package employee

import (
	"context"
)

// Directory is the read-only view of employees used by other features to
// resolve references.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) FindByID(ctx context.Context, id string) (*Employee, error) {
	empl, err := d.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return empl, nil
}

// Exists reports whether an employee with the given id is on record. A
// malformed id is reported as absent, not as an error.
func (d *Directory) Exists(ctx context.Context, id string) (bool, error) {
	return d.repo.ExistsByID(ctx, id)
}
