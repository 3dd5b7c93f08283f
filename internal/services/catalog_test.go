package services

import (
	"context"
	"testing"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/citivoice/complaint-server/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgency_CRUD(t *testing.T) {
	f := newFixture()
	svc := NewAgencyService(f.store, testLogger())
	ctx := context.Background()

	a, err := svc.Create(ctx, &models.CreateAgencyRequest{Name: "Power Utility", Acronym: "PU"})
	require.NoError(t, err)
	assert.Empty(t, a.Description)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, a.ID, list[0].ID)

	logo := "https://cdn.example/pu.png"
	updated, err := svc.Update(ctx, a.ID, &models.UpdateAgencyRequest{LogoURL: &logo})
	require.NoError(t, err)
	assert.Equal(t, "Power Utility", updated.Name)
	assert.Equal(t, logo, updated.LogoURL)

	roads, err := svc.Get(ctx, f.roads.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, roads.UserCount)

	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err = svc.Get(ctx, a.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.Delete(ctx, a.ID), apperr.KindNotFound))
}

func TestCategory_PrimaryAgencyIsExclusive(t *testing.T) {
	f := newFixture()
	svc := NewCategoryService(f.store, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.CategoryRequest{Name: "Road signs", PrimaryAgencyID: models.UUIDPtr(f.roads.ID)})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "Agency is already assigned as primary to category: Potholes", apperr.MessageOf(err))

	water, err := svc.Create(ctx, &models.CategoryRequest{
		Name:              "Leaks",
		PrimaryAgencyID:   models.UUIDPtr(f.water.ID),
		SecondaryAgencies: []uuid.UUID{f.roads.ID},
	})
	require.NoError(t, err)
	require.NotNil(t, water.PrimaryAgency)
	assert.Equal(t, "Water Board", water.PrimaryAgency.Name)
	require.Len(t, water.SecondaryAgencies, 1)

	// Keeping its own primary is allowed
	updated, err := svc.Update(ctx, f.potholes.ID, &models.CategoryRequest{
		Name:            "Potholes and cracks",
		PrimaryAgencyID: models.UUIDPtr(f.roads.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "Potholes and cracks", updated.Name)

	_, err = svc.Update(ctx, f.potholes.ID, &models.CategoryRequest{
		Name:            "Potholes",
		PrimaryAgencyID: models.UUIDPtr(f.water.ID),
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestCategory_UpdateReplacesSecondaries(t *testing.T) {
	f := newFixture()
	svc := NewCategoryService(f.store, testLogger())
	ctx := context.Background()

	c, err := svc.Create(ctx, &models.CategoryRequest{Name: "Noise", SecondaryAgencies: []uuid.UUID{f.roads.ID, f.water.ID}})
	require.NoError(t, err)
	assert.Len(t, c.SecondaryAgencyIDs, 2)

	c, err = svc.Update(ctx, c.ID, &models.CategoryRequest{Name: "Noise", SecondaryAgencies: []uuid.UUID{f.water.ID}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.water.ID}, c.SecondaryAgencyIDs)

	_, err = svc.Update(ctx, uuid.New(), &models.CategoryRequest{Name: "Ghost"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestHistory_Scopes(t *testing.T) {
	f := newFixture()
	complaints := f.complaintService()
	svc := NewHistoryService(f.store, testLogger())
	ctx := context.Background()

	d := f.submit(complaints)
	_, err := complaints.Assign(ctx, d.ID, f.roadsStf.ID)
	require.NoError(t, err)
	_, err = complaints.Transfer(ctx, d.ID, &models.TransferComplaintRequest{TargetAgencyID: f.water.ID, UserID: f.roadsAdm.ID})
	require.NoError(t, err)

	rows, err := svc.ListByComplaint(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, models.ActionTransferred, rows[0].Action)

	staff, err := svc.ListByStaff(ctx, f.roadsStf.ID)
	require.NoError(t, err)
	assert.Len(t, staff, 1)

	// Water sees the whole trail of a complaint it now owns
	water, err := svc.ListByAgency(ctx, f.water.ID)
	require.NoError(t, err)
	assert.Len(t, water, 4)

	_, err = svc.ListByComplaint(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.ListByAgency(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.ListByStaff(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestHistory_KnownComplaintWithoutRows(t *testing.T) {
	f := newFixture()
	svc := NewHistoryService(f.store, testLogger())
	ctx := context.Background()

	c := &models.Complaint{AgencyID: f.roads.ID, CategoryID: f.potholes.ID, Status: models.StatusPending, TrackingCode: "CITIVOICE-001-002-003-0004-005"}
	require.NoError(t, f.store.CreateComplaint(ctx, c))

	rows, err := svc.ListByComplaint(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

type recordingUploader struct {
	inputs []storage.UploadInput
}

func (u *recordingUploader) Upload(_ context.Context, in storage.UploadInput) (*storage.UploadResult, error) {
	u.inputs = append(u.inputs, in)
	return &storage.UploadResult{URL: "https://files.example/" + in.Key}, nil
}

func TestFile_Upload(t *testing.T) {
	f := newFixture()
	up := &recordingUploader{}
	svc := NewFileService(f.store, up, testLogger())
	ctx := context.Background()

	file, err := svc.Upload(ctx, `C:\photos\my pothole.png`, "image/png", []byte("\x89PNG data"))
	require.NoError(t, err)

	require.Len(t, up.inputs, 1)
	assert.Equal(t, "uploads/"+file.ID.String()+"/my_pothole.png", up.inputs[0].Key)
	assert.Equal(t, "my_pothole.png", file.Filename)
	assert.Equal(t, "https://files.example/"+up.inputs[0].Key, file.URL)
	assert.EqualValues(t, 9, file.Size)

	plain, err := svc.Upload(ctx, "notes.txt", "", []byte("hello there"))
	require.NoError(t, err)
	assert.Contains(t, plain.ContentType, "text/plain")

	_, err = svc.Upload(ctx, "empty.txt", "text/plain", nil)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = svc.Upload(ctx, "big.bin", "application/zip", make([]byte, MaxUploadSize+1))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestFile_StorageNotConfigured(t *testing.T) {
	f := newFixture()
	svc := NewFileService(f.store, storage.NoopUploader{}, testLogger())

	_, err := svc.Upload(context.Background(), "a.txt", "text/plain", []byte("a"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.ErrorIs(t, err, storage.ErrNotConfigured)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":        "report.pdf",
		"../../etc/passwd":  "passwd",
		"a b?c#d%e.txt":     "a_bcde.txt",
		"":                  "file",
		"..":                "file",
		`dir\sub\image.jpg`: "image.jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}

func TestDelete_LedgerParticipantsAreKept(t *testing.T) {
	f := newAuthFixture(t)
	agencies := NewAgencyService(f.store, testLogger())
	ctx := context.Background()

	d := f.submit(f.complaintService())
	before, err := f.store.ListHistory(ctx, repository.HistoryFilter{ComplaintID: &d.ID})
	require.NoError(t, err)

	err = f.users.Delete(ctx, f.roadsAdm.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	err = agencies.Delete(ctx, f.roads.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	after, err := f.store.ListHistory(ctx, repository.HistoryFilter{ComplaintID: &d.ID})
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NoError(t, f.users.Delete(ctx, f.waterStf.ID))
	_, err = f.users.Get(ctx, f.waterStf.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
