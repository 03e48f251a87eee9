package influencer

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindIdentitiesByHandle(ctx context.Context, handle string) ([]Identity, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Identity), args.Error(1)
}

func (m *mockStore) InsertIdentity(ctx context.Context, id *Identity) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) UpdateIdentity(ctx context.Context, id *Identity) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) FindAssociation(ctx context.Context, campaignID, identityID int64) (*Association, error) {
	args := m.Called(ctx, campaignID, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Association), args.Error(1)
}

func (m *mockStore) InsertAssociation(ctx context.Context, a *Association) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) MostRecentAssociation(ctx context.Context, identityID int64) (*Association, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Association), args.Error(1)
}

func (m *mockStore) FindOrCreateCampaign(ctx context.Context, name string, dates DateRange) (*Campaign, error) {
	args := m.Called(ctx, name, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Campaign), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
