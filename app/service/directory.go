package service

import (
	"context"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"

	"github.com/google/uuid"
)

// directory resolves user references on complaints in one batch query.
type directory struct {
	users repository.UserRepository
}

func (d directory) lookup(ctx context.Context, complaints ...*model.Complaint) (map[string]*model.User, error) {
	ids := make([]uuid.UUID, 0)
	for _, raw := range model.UserIDs(complaints...) {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	found, err := d.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(found))
	for i := range found {
		byID[found[i].ID.String()] = &found[i]
	}
	return byID, nil
}

func (d directory) view(ctx context.Context, c *model.Complaint) (*model.ComplaintView, error) {
	users, err := d.lookup(ctx, c)
	if err != nil {
		return nil, err
	}
	return model.NewComplaintView(c, users), nil
}

func (d directory) views(ctx context.Context, complaints []model.Complaint) ([]*model.ComplaintView, error) {
	ptrs := make([]*model.Complaint, len(complaints))
	for i := range complaints {
		ptrs[i] = &complaints[i]
	}
	users, err := d.lookup(ctx, ptrs...)
	if err != nil {
		return nil, err
	}
	out := make([]*model.ComplaintView, len(ptrs))
	for i, c := range ptrs {
		out[i] = model.NewComplaintView(c, users)
	}
	return out, nil
}
