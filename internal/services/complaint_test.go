package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_SubmitsAndAssignsToAdmin(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()

	d := f.submit(svc)

	assert.Equal(t, models.StatusPending, d.Status)
	assert.True(t, ValidTrackingCode(d.TrackingCode), d.TrackingCode)
	require.NotNil(t, d.Assignment)
	assert.Equal(t, f.roadsAdm.ID, d.Assignment.StaffID)
	require.NotNil(t, d.Agency)
	assert.Equal(t, "Roads Authority", d.Agency.Name)

	rows := f.store.historyFor(d.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, models.ActionSubmitted, rows[0].Action)
	assert.Equal(t, "Complaint submitted by citizen", rows[0].Metadata)
	assert.Equal(t, models.ActionAssigned, rows[1].Action)
	assert.Equal(t, f.roadsAdm.ID, *rows[1].ToUserID)
	assert.Equal(t, f.roads.ID, *rows[1].ToAgencyID)

	confirm := f.queue.byTemplate(notify.TemplateComplaintConfirmation)
	require.Len(t, confirm, 1)
	assert.Equal(t, "ada@example.com", confirm[0].To)
	assert.Equal(t, d.TrackingCode, confirm[0].Data["trackingCode"])
	assert.Equal(t, "https://app.example/track/"+d.TrackingCode, confirm[0].Data["trackingLink"])
	assert.Equal(t, notify.DefaultLogoURL, confirm[0].Data["agencyLogoUrl"])

	assigned := f.queue.byTemplate(notify.TemplateComplaintAssignment)
	require.Len(t, assigned, 1)
	assert.Equal(t, f.roadsAdm.Email, assigned[0].To)
}

func TestCreate_NoAdminWritesNothing(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()

	lonely := &models.Agency{Name: "Parks", Acronym: "PK"}
	require.NoError(t, f.store.CreateAgency(ctx, lonely))

	_, err := svc.Create(ctx, &models.CreateComplaintRequest{
		Subject:      "Broken bench",
		Description:  "Bench is broken",
		CitizenName:  "Ada Citizen",
		CitizenEmail: "ada@example.com",
		CategoryID:   f.potholes.ID,
		AgencyID:     lonely.ID,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "No admin found for the agency", apperr.MessageOf(err))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.queue.msgs)
}

func TestCreate_UnknownReferences(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()

	req := &models.CreateComplaintRequest{
		Subject:      "x",
		Description:  "y",
		CitizenName:  "z",
		CitizenEmail: "z@example.com",
		CategoryID:   f.potholes.ID,
		AgencyID:     uuid.New(),
	}
	_, err := svc.Create(ctx, req)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	req.AgencyID = f.roads.ID
	req.CategoryID = uuid.New()
	_, err = svc.Create(ctx, req)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreate_RetriesTrackingCodeCollision(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()

	first := f.submit(svc)

	codes := []string{first.TrackingCode, first.TrackingCode, "CITIVOICE-111-222-333-4444-555"}
	calls := 0
	svc.genCode = func(time.Time) (string, error) {
		code := codes[calls]
		calls++
		return code, nil
	}

	second := f.submit(svc)
	assert.Equal(t, "CITIVOICE-111-222-333-4444-555", second.TrackingCode)
	assert.Equal(t, 3, calls)
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	first := f.submit(svc)

	calls := 0
	svc.genCode = func(time.Time) (string, error) {
		calls++
		return first.TrackingCode, nil
	}

	_, err := svc.Create(context.Background(), &models.CreateComplaintRequest{
		Subject: "x", Description: "y", CitizenName: "z", CitizenEmail: "z@example.com",
		CategoryID: f.potholes.ID, AgencyID: f.roads.ID,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Equal(t, maxTrackingCodeAttempts, calls)
}

func TestCreate_QueueFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.queue.err = notify.ErrQueueFull
	svc := f.complaintService()

	d := f.submit(svc)
	assert.NotEmpty(t, d.TrackingCode)
}

func TestAssign_ReassignsAndStartsProgress(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	d := f.submit(svc)
	f.queue.reset()

	out, err := svc.Assign(context.Background(), d.ID, f.roadsStf.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, out.Status)
	require.NotNil(t, out.Assignment)
	assert.Equal(t, f.roadsStf.ID, out.Assignment.StaffID)

	rows := f.store.historyFor(d.ID)
	require.Len(t, rows, 3)
	last := rows[2]
	assert.Equal(t, models.ActionReassigned, last.Action)
	assert.Equal(t, f.roadsAdm.ID, *last.FromUserID)
	assert.Equal(t, f.roadsStf.ID, *last.ToUserID)

	msgs := f.queue.byTemplate(notify.TemplateComplaintAssignment)
	require.Len(t, msgs, 1)
	assert.Equal(t, f.roadsStf.Email, msgs[0].To)
}

func TestAssign_KeepsNonPendingStatus(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	d := f.submit(svc)

	_, err := svc.UpdateStatus(ctx, d.ID, &models.UpdateStatusRequest{Status: models.StatusResolved, UserID: f.roadsAdm.ID})
	require.NoError(t, err)

	out, err := svc.Assign(ctx, d.ID, f.roadsStf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, out.Status)
}

func TestAssign_Rejections(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	d := f.submit(svc)

	tests := []struct {
		name        string
		complaintID uuid.UUID
		staffID     uuid.UUID
		kind        apperr.Kind
		msg         string
	}{
		{"unknown complaint", uuid.New(), f.roadsStf.ID, apperr.KindNotFound, "Complaint not found"},
		{"unknown staff", d.ID, uuid.New(), apperr.KindNotFound, "Staff member not found"},
		{"other agency", d.ID, f.waterStf.ID, apperr.KindBadRequest, "Staff member does not belong to the complaint agency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Assign(ctx, tt.complaintID, tt.staffID)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tt.kind))
			assert.Equal(t, tt.msg, apperr.MessageOf(err))
		})
	}

	assert.Len(t, f.store.historyFor(d.ID), 2)
	a, err := svc.GetAssignment(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, f.roadsAdm.ID, a.StaffID)
}

func TestAssign_RollsBackWhenLedgerWriteFails(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	d := f.submit(svc)
	f.queue.reset()

	f.store.failOn["AppendHistory"] = errInjected
	_, err := svc.Assign(ctx, d.ID, f.roadsStf.ID)
	require.True(t, errors.Is(err, errInjected))
	delete(f.store.failOn, "AppendHistory")

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, f.roadsAdm.ID, got.Assignment.StaffID)
	assert.Len(t, f.store.historyFor(d.ID), 2)
	assert.Empty(t, f.queue.msgs)
}

func TestUpdateStatus_AppendsMappedAction(t *testing.T) {
	tests := []struct {
		status models.ComplaintStatus
		action models.HistoryAction
	}{
		{models.StatusInProgress, models.ActionInProgress},
		{models.StatusResolved, models.ActionResolved},
		{models.StatusRejected, models.ActionRejected},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture()
			svc := f.complaintService()
			d := f.submit(svc)
			f.queue.reset()

			out, err := svc.UpdateStatus(context.Background(), d.ID, &models.UpdateStatusRequest{
				Status: tt.status,
				UserID: f.roadsStf.ID,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.status, out.Status)

			rows := f.store.historyFor(d.ID)
			require.Len(t, rows, 3)
			last := rows[2]
			assert.Equal(t, tt.action, last.Action)
			assert.Equal(t, f.roadsStf.ID, *last.FromUserID)
			assert.Equal(t, f.roadsAdm.ID, *last.ToUserID)
			assert.Equal(t, "Status updated to "+string(tt.status), last.Metadata)

			citizen := f.queue.byTemplate(notify.TemplateComplaintStatusUpdate)
			require.Len(t, citizen, 1)
			assert.Equal(t, "ada@example.com", citizen[0].To)
			assert.Equal(t, string(tt.status), citizen[0].Data["status"])

			assignee := f.queue.byTemplate(notify.TemplateComplaintStatusChanged)
			require.Len(t, assignee, 1)
			assert.Equal(t, f.roadsAdm.Email, assignee[0].To)
		})
	}
}

func TestUpdateStatus_KeepsSuppliedMetadata(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	d := f.submit(svc)

	_, err := svc.UpdateStatus(context.Background(), d.ID, &models.UpdateStatusRequest{
		Status:   models.StatusResolved,
		UserID:   f.roadsAdm.ID,
		Metadata: "Patched on Tuesday",
	})
	require.NoError(t, err)

	rows := f.store.historyFor(d.ID)
	assert.Equal(t, "Patched on Tuesday", rows[len(rows)-1].Metadata)
}

func TestUpdateStatus_Rejections(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	d := f.submit(svc)

	tests := []struct {
		name string
		id   uuid.UUID
		req  models.UpdateStatusRequest
		kind apperr.Kind
		msg  string
	}{
		{"pending", d.ID, models.UpdateStatusRequest{Status: models.StatusPending, UserID: f.roadsAdm.ID},
			apperr.KindBadRequest, "PENDING is only re-entered by transfer"},
		{"unknown status", d.ID, models.UpdateStatusRequest{Status: "DONE", UserID: f.roadsAdm.ID},
			apperr.KindBadRequest, "Invalid status value: DONE"},
		{"other agency", d.ID, models.UpdateStatusRequest{Status: models.StatusResolved, UserID: f.waterAdm.ID},
			apperr.KindBadRequest, "User does not belong to the complaint agency"},
		{"unknown user", d.ID, models.UpdateStatusRequest{Status: models.StatusResolved, UserID: uuid.New()},
			apperr.KindNotFound, "User not found"},
		{"unknown complaint", uuid.New(), models.UpdateStatusRequest{Status: models.StatusResolved, UserID: f.roadsAdm.ID},
			apperr.KindNotFound, "Complaint not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(ctx, tt.id, &tt.req)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tt.kind))
			assert.Equal(t, tt.msg, apperr.MessageOf(err))
		})
	}

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Len(t, f.store.historyFor(d.ID), 2)
}

func TestTransfer_ResetsOwnership(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	d := f.submit(svc)

	_, err := svc.Assign(ctx, d.ID, f.roadsStf.ID)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, d.ID, &models.UpdateStatusRequest{Status: models.StatusResolved, UserID: f.roadsStf.ID})
	require.NoError(t, err)
	f.queue.reset()

	out, err := svc.Transfer(ctx, d.ID, &models.TransferComplaintRequest{
		TargetAgencyID: f.water.ID,
		UserID:         f.roadsAdm.ID,
		TransferReason: "Burst main under the road",
	})
	require.NoError(t, err)

	assert.Equal(t, f.water.ID, out.AgencyID)
	assert.Equal(t, models.StatusPending, out.Status)
	assert.Nil(t, out.Assignment)

	rows := f.store.historyFor(d.ID)
	last := rows[len(rows)-1]
	assert.Equal(t, models.ActionTransferred, last.Action)
	assert.Equal(t, f.roads.ID, *last.FromAgencyID)
	assert.Equal(t, f.water.ID, *last.ToAgencyID)
	assert.Equal(t, f.roadsAdm.ID, *last.FromUserID)
	assert.Nil(t, last.ToUserID)
	assert.Equal(t, "Burst main under the road", last.Metadata)

	msgs := f.queue.byTemplate(notify.TemplateComplaintTransfer)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Water Board", msgs[0].Data["targetAgencyName"])
	assert.Equal(t, "https://cdn.example/wb.png", msgs[0].Data["targetAgencyLogoUrl"])

	_, err = svc.GetAssignment(ctx, d.ID)
	assert.Equal(t, "No assignment found for this complaint", apperr.MessageOf(err))

	// The old agency no longer acts on it; the new agency assigns fresh
	_, err = svc.UpdateStatus(ctx, d.ID, &models.UpdateStatusRequest{Status: models.StatusInProgress, UserID: f.roadsAdm.ID})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	out, err = svc.Assign(ctx, d.ID, f.waterStf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, out.Status)
	rows = f.store.historyFor(d.ID)
	assert.Equal(t, models.ActionAssigned, rows[len(rows)-1].Action)
	assert.Nil(t, rows[len(rows)-1].FromUserID)
}

func TestTransfer_Rejections(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	d := f.submit(svc)

	_, err := svc.Transfer(ctx, d.ID, &models.TransferComplaintRequest{TargetAgencyID: f.water.ID, UserID: f.waterAdm.ID})
	assert.Equal(t, "User does not belong to the current agency", apperr.MessageOf(err))

	_, err = svc.Transfer(ctx, d.ID, &models.TransferComplaintRequest{TargetAgencyID: uuid.New(), UserID: f.roadsAdm.ID})
	assert.Equal(t, "Target agency not found", apperr.MessageOf(err))

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, f.roads.ID, got.AgencyID)
	assert.NotNil(t, got.Assignment)
}

func TestUpdate_RefusesLifecycleFields(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	d := f.submit(svc)

	status := "RESOLVED"
	_, err := svc.Update(ctx, d.ID, &models.UpdateComplaintRequest{Status: &status})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = svc.Update(ctx, d.ID, &models.UpdateComplaintRequest{AgencyID: &f.water.ID})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	subject := "Pothole on Main Street"
	out, err := svc.Update(ctx, d.ID, &models.UpdateComplaintRequest{Subject: &subject})
	require.NoError(t, err)
	assert.Equal(t, subject, out.Subject)
	assert.Equal(t, models.StatusPending, out.Status)
}

func TestGetByTrackingCode(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	d := f.submit(svc)

	got, err := svc.GetByTrackingCode(ctx, d.TrackingCode)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = svc.GetByTrackingCode(ctx, "not-a-code")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.GetByTrackingCode(ctx, "CITIVOICE-000-000-000-0000-000")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListByStaffAndAgency(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	a := f.submit(svc)
	b := f.submit(svc)

	_, err := svc.Assign(ctx, a.ID, f.roadsStf.ID)
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, b.ID, &models.TransferComplaintRequest{TargetAgencyID: f.water.ID, UserID: f.roadsAdm.ID})
	require.NoError(t, err)

	mine, err := svc.ListByStaff(ctx, f.roadsStf.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	water, err := svc.ListByAgency(ctx, f.water.ID)
	require.NoError(t, err)
	require.Len(t, water, 1)
	assert.Equal(t, b.ID, water[0].ID)
}

func TestDelete_RemovesLedgerRows(t *testing.T) {
	f := newFixture()
	svc := f.complaintService()
	ctx := context.Background()
	d := f.submit(svc)

	require.NoError(t, svc.Delete(ctx, d.ID))
	assert.Empty(t, f.store.historyFor(d.ID))

	err := svc.Delete(ctx, d.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestTrackingCodeFormat(t *testing.T) {
	now := time.UnixMilli(1_700_000_012_345)
	for i := 0; i < 50; i++ {
		code, err := GenerateTrackingCode(now)
		require.NoError(t, err)
		assert.True(t, ValidTrackingCode(code), code)
		assert.Equal(t, "2345", code[22:26])
	}
	assert.False(t, ValidTrackingCode("CITIVOICE-12-345-678-9012-345"))
	assert.False(t, ValidTrackingCode("citivoice-123-456-789-0123-456"))
}
